package result

import "github.com/kailas-cloud/triage/internal/domain/knowledge"

// KeywordScore is the fixed relevance assigned to keyword matches.
const KeywordScore = 0.5

// MatchType labels how a hit was found.
type MatchType string

// Match types.
const (
	MatchSemantic MatchType = "semantic"
	MatchKeyword  MatchType = "keyword"
)

// Result is a single search hit.
type Result struct {
	entry knowledge.Entry
	score float64
}

// New creates a search result.
func New(e knowledge.Entry, score float64) Result {
	return Result{entry: e, score: score}
}

// NewKeyword creates a keyword hit with the fixed keyword score.
func NewKeyword(e knowledge.Entry) Result {
	return Result{entry: e, score: KeywordScore}
}

// Entry returns the matched knowledge entry.
func (r Result) Entry() knowledge.Entry { return r.entry }

// Score returns the relevance score: cosine similarity or KeywordScore.
func (r Result) Score() float64 { return r.score }

// MatchType is semantic only when the score is strictly above KeywordScore,
// so a cosine of exactly 0.5 reads as keyword.
func (r Result) MatchType() MatchType {
	if r.score > KeywordScore {
		return MatchSemantic
	}
	return MatchKeyword
}
