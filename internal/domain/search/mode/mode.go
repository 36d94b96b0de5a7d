package mode

// Mode is the strategy that actually produced a result set.
type Mode string

// Search mode constants.
const (
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
	// KeywordFallback marks a semantic search that degraded to keyword matching.
	KeywordFallback Mode = "keyword_fallback"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Keyword || m == KeywordFallback
}
