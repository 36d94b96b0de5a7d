package query

import (
	"sort"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
)

// Query selects published knowledge entries from a store.
// Results come back in natural order: newest first, then by id.
type Query struct {
	Filters filter.Filters
	// Text, when set, must appear (case-insensitively) in the description,
	// specialty, facility or provider of the entry.
	Text string
	// Limit caps the result count; zero means no cap.
	Limit int
}

// Matches reports whether a single entry satisfies the query.
// It is the reference predicate that store implementations mirror in SQL.
func (q Query) Matches(e knowledge.Entry) bool {
	if !e.IsPublished() {
		return false
	}
	if !q.Filters.Matches(e) {
		return false
	}
	if q.Text == "" {
		return true
	}
	return filter.ContainsFold(e.Description(), q.Text) ||
		filter.ContainsFold(e.Specialty(), q.Text) ||
		filter.ContainsFold(e.Facility(), q.Text) ||
		(e.Provider() != nil && filter.ContainsFold(*e.Provider(), q.Text))
}

// SortNatural orders entries newest first, ties broken by ascending id.
func SortNatural(entries []knowledge.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID() < b.ID()
	})
}
