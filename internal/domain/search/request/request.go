package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1000
	DefaultTopK    = 10
	MaxTopK        = 50
	// DefaultMinSimilarity is the cosine threshold below which a semantic hit is discarded.
	DefaultMinSimilarity = 0.5
)

// Request is a validated search query.
type Request struct {
	query         string
	filters       filter.Filters
	topK          int
	minSimilarity float64
}

// New validates search parameters. The query is trimmed; a blank query,
// topK outside [1, MaxTopK] or minSimilarity outside [-1, 1] is rejected.
func New(query string, filters filter.Filters, topK int, minSimilarity float64) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("top_k must be positive")
	}
	if topK > MaxTopK {
		return Request{}, fmt.Errorf("top_k must be at most %d", MaxTopK)
	}
	if minSimilarity < -1 || minSimilarity > 1 {
		return Request{}, fmt.Errorf("min_similarity must be between -1 and 1")
	}
	return Request{
		query:         query,
		filters:       filters,
		topK:          topK,
		minSimilarity: minSimilarity,
	}, nil
}

// Query returns the search query text.
func (r Request) Query() string { return r.query }

// Filters returns the structured filters.
func (r Request) Filters() filter.Filters { return r.filters }

// TopK returns the maximum number of results.
func (r Request) TopK() int { return r.topK }

// MinSimilarity returns the cosine threshold.
func (r Request) MinSimilarity() float64 { return r.minSimilarity }
