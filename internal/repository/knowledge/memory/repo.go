// Package memory is an in-process knowledge store for tests, demos and
// single-node setups without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
)

// Repo keeps entries in a slice guarded by a RWMutex.
type Repo struct {
	mu      sync.RWMutex
	entries []knowledge.Entry
	index   map[string]int
}

// New creates a store preloaded with entries.
func New(entries ...knowledge.Entry) *Repo {
	r := &Repo{index: make(map[string]int)}
	r.upsert(entries)
	return r
}

// Insert adds entries, replacing any with the same id.
func (r *Repo) Insert(_ context.Context, entries []knowledge.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(entries)
	return nil
}

func (r *Repo) upsert(entries []knowledge.Entry) {
	for _, e := range entries {
		if i, ok := r.index[e.ID()]; ok {
			r.entries[i] = e
			continue
		}
		r.index[e.ID()] = len(r.entries)
		r.entries = append(r.entries, e)
	}
}

// FindPublished returns published entries matching q, newest first.
func (r *Repo) FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]knowledge.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	query.SortNatural(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Suggest returns distinct values of f containing partial, ascending.
func (r *Repo) Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, e := range r.entries {
		if !e.IsPublished() {
			continue
		}
		v := f.Value(e)
		if v == "" || !filter.ContainsFold(v, partial) {
			continue
		}
		seen[v] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored entries, drafts included.
func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Ping always succeeds.
func (r *Repo) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (r *Repo) Close() error { return nil }
