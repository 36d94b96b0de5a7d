package search

import (
	"context"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
)

// Repository is the read side of the knowledge store.
type Repository interface {
	// FindPublished returns published entries matching q in natural order.
	FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error)
	// Suggest returns distinct non-empty values of f containing partial, ascending.
	Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error)
}

// Embedder yields a vector for text, or ok == false when none is available.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, bool)
}
