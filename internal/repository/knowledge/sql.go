// Package knowledge holds helpers shared by the SQL-backed knowledge stores.
// Implementations live in the memory, postgres and sqlite subpackages.
package knowledge

import (
	"strings"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
)

// Table is the knowledge entry table name.
const Table = "knowledge_entries"

// LikeEscape is the escape character used by ContainsPattern.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching any value that contains s
// literally. Use it with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(s)) + "%"
}

// Column maps an autocomplete field to its column.
func Column(f field.Field) string {
	switch f {
	case field.Provider:
		return "provider"
	case field.Facility:
		return "facility"
	default:
		return "specialty"
	}
}

// Fold names the SQL function that case-folds a column before LIKE. It
// must lowercase with the same rules as strings.ToLower, which
// ContainsPattern applies to the pattern.
type Fold string

// Lower is the built-in lower(). PostgreSQL folds Unicode with it; SQLite
// folds ASCII only and needs a registered function instead.
const Lower Fold = "lower"

// OrderNatural is the ORDER BY clause for query.SortNatural.
const OrderNatural = "created_at DESC, id ASC"

// Where renders the predicate of q.Matches as a SQL condition with ?
// placeholders. The result always constrains status to published.
func Where(q query.Query, fold Fold) (string, []any) {
	conds := []string{"status = ?"}
	args := []any{string(knowledge.StatusPublished)}

	f := q.Filters
	for _, c := range []struct{ col, val string }{
		{"facility", f.Facility()},
		{"specialty", f.Specialty()},
		{"provider", f.Provider()},
	} {
		if c.val == "" {
			continue
		}
		conds = append(conds, containsCond(fold, c.col))
		args = append(args, ContainsPattern(c.val))
	}
	if f.KnowledgeType() != "" {
		conds = append(conds, "knowledge_type = ?")
		args = append(args, string(f.KnowledgeType()))
	}
	if c := f.ContinuityOnly(); c != nil {
		conds = append(conds, "is_continuity_care = ?")
		args = append(args, *c)
	}
	if q.Text != "" {
		pat := ContainsPattern(q.Text)
		cols := []string{"description", "specialty", "facility", "provider"}
		ors := make([]string, len(cols))
		for i, col := range cols {
			ors[i] = containsCond(fold, col)
			args = append(args, pat)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(conds, " AND "), args
}

// SuggestWhere renders the autocomplete condition for column col.
func SuggestWhere(col, partial string, fold Fold) (string, []any) {
	cond := "status = ? AND " + col + " IS NOT NULL AND " + col + " <> '' AND " + containsCond(fold, col)
	return cond, []any{string(knowledge.StatusPublished), ContainsPattern(partial)}
}

// NULL columns never satisfy LIKE, so a missing provider cannot match.
func containsCond(fold Fold, col string) string {
	return string(fold) + "(" + col + ") LIKE ? ESCAPE '" + LikeEscape + "'"
}
