// Package seed loads knowledge entries from YAML fixtures.
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
)

// Inserter is the write side of a knowledge store.
type Inserter interface {
	Insert(ctx context.Context, entries []knowledge.Entry) error
}

type fixture struct {
	Entries []fixtureEntry `yaml:"entries"`
}

type fixtureEntry struct {
	ID             string    `yaml:"id"`
	Author         string    `yaml:"author"`
	Facility       string    `yaml:"facility"`
	Specialty      string    `yaml:"specialty"`
	Provider       string    `yaml:"provider"`
	Type           string    `yaml:"type"`
	ContinuityCare bool      `yaml:"continuity_care"`
	Description    string    `yaml:"description"`
	Status         string    `yaml:"status"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// Parse decodes a fixture document into validated entries.
// Entries without an id get a name-based UUID, so reseeding the same file upserts.
func Parse(data []byte) ([]knowledge.Entry, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	// spread default timestamps so natural ordering follows file order
	base := time.Now().UTC().Truncate(time.Second)
	entries := make([]knowledge.Entry, 0, len(f.Entries))
	for i, fe := range f.Entries {
		if fe.ID == "" {
			fe.ID = StableID(fe.Facility, fe.Specialty, fe.Provider, fe.Description)
		}
		if fe.CreatedAt.IsZero() {
			fe.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		}
		var provider *string
		if p := strings.TrimSpace(fe.Provider); p != "" {
			provider = &p
		}

		e, err := knowledge.New(knowledge.Params{
			ID:          fe.ID,
			AuthorName:  strings.TrimSpace(fe.Author),
			Facility:    strings.TrimSpace(fe.Facility),
			Specialty:   strings.TrimSpace(fe.Specialty),
			Provider:    provider,
			Type:        knowledge.Type(fe.Type),
			Continuity:  fe.ContinuityCare,
			Description: strings.TrimSpace(fe.Description),
			Status:      knowledge.Status(fe.Status),
			CreatedAt:   fe.CreatedAt.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) ([]knowledge.Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return entries, nil
}

// Run loads path and inserts its entries into dst. It returns the number inserted.
func Run(ctx context.Context, dst Inserter, path string, logger *zap.Logger) (int, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := dst.Insert(ctx, entries); err != nil {
		return 0, fmt.Errorf("insert seed entries: %w", err)
	}

	published := 0
	for _, e := range entries {
		if e.IsPublished() {
			published++
		}
	}
	logger.Info("Seeded knowledge entries",
		zap.String("file", path),
		zap.Int("total", len(entries)),
		zap.Int("published", published),
	)
	return len(entries), nil
}

// StableID derives an entry id from its content so re-seeding upserts instead of duplicating.
func StableID(facility, specialty, provider, description string) string {
	name := strings.Join([]string{facility, specialty, provider, description}, "\x00")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
