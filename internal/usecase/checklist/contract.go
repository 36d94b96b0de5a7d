package checklist

import (
	"context"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	"github.com/kailas-cloud/triage/internal/usecase/search"
)

// Repository reads published knowledge entries.
type Repository interface {
	FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error)
}

// Searcher runs semantic search with keyword fallback.
type Searcher interface {
	Semantic(ctx context.Context, req request.Request) (search.Response, error)
}
