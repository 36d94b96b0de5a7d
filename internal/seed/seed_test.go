package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
)

// --- Mocks ---

type mockInserter struct {
	got []knowledge.Entry
	err error
}

func (m *mockInserter) Insert(_ context.Context, entries []knowledge.Entry) error {
	m.got = append(m.got, entries...)
	return m.err
}

// --- Tests ---

const sample = `
entries:
  - author: Maria Lopez
    facility: Main Campus
    specialty: Cardiology
    provider: Dr. Mitchell
    type: pre_visit_requirement
    description: BNP labs within 48 hours.
  - id: fixed-id
    author: Kevin Park
    facility: Provo
    specialty: Oncology
    provider: "   "
    continuity_care: true
    type: continuity_care
    status: draft
    created_at: 2024-05-01T10:00:00Z
    description: Keep the original oncologist.
  - author: Ana Ruiz
    facility: Riverton
    specialty: Neurology
    description: Untyped entry.
`

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	first := entries[0]
	if _, err := uuid.Parse(first.ID()); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", first.ID(), err)
	}
	if first.ProviderName() != "Dr. Mitchell" || !first.IsPublished() {
		t.Errorf("first entry: provider=%q published=%v", first.ProviderName(), first.IsPublished())
	}

	second := entries[1]
	if second.ID() != "fixed-id" {
		t.Errorf("explicit id: got %q", second.ID())
	}
	if second.Provider() != nil {
		t.Errorf("blank provider should be nil, got %q", *second.Provider())
	}
	if second.IsPublished() || !second.IsContinuityCare() {
		t.Errorf("second entry: status=%s continuity=%v", second.Status(), second.IsContinuityCare())
	}
	if !second.CreatedAt().Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at: got %v", second.CreatedAt())
	}

	if entries[2].Type() != knowledge.TypeGeneralKnowledge {
		t.Errorf("default type: got %q", entries[2].Type())
	}
	if !entries[0].CreatedAt().After(entries[2].CreatedAt()) {
		t.Error("default timestamps should follow file order, newest first")
	}
}

func TestParse_StableIDs(t *testing.T) {
	a, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if a[0].ID() != b[0].ID() {
		t.Errorf("ids differ between parses: %s vs %s", a[0].ID(), b[0].ID())
	}
	if a[0].ID() == a[2].ID() {
		t.Error("distinct entries share an id")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "entries: [",
		"missing author": "entries:\n  - facility: X\n    specialty: Y\n    description: Z\n",
		"bad type":       "entries:\n  - author: A\n    facility: X\n    specialty: Y\n    type: rumor\n    description: Z\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	ins := &mockInserter{}
	n, err := Run(context.Background(), ins, path, zap.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 || len(ins.got) != 3 {
		t.Errorf("inserted %d (store saw %d), want 3", n, len(ins.got))
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := Run(context.Background(), &mockInserter{}, "/nonexistent/seed.yaml", zap.NewNop()); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	storeErr := errors.New("disk full")
	_, err := Run(context.Background(), &mockInserter{err: storeErr}, path, zap.NewNop())
	if !errors.Is(err, storeErr) {
		t.Errorf("got %v, want wrapped store error", err)
	}
}

func TestLoadFile_ShippedFixture(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "config", "seed", "knowledge.yaml")

	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	seen := map[knowledge.Type]bool{}
	for _, e := range entries {
		seen[e.Type()] = true
	}
	for _, kt := range []knowledge.Type{
		knowledge.TypeDiagnosisSpecialty, knowledge.TypeProviderPreference, knowledge.TypeContinuityCare,
		knowledge.TypePreVisitRequirement, knowledge.TypeSchedulingWorkflow, knowledge.TypeGeneralKnowledge,
	} {
		if !seen[kt] {
			t.Errorf("fixture has no %s entry", kt)
		}
	}
}
