package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/triage/internal/domain/search/mode"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	"github.com/kailas-cloud/triage/internal/domain/search/result"
	"github.com/kailas-cloud/triage/internal/metrics"
)

// Keyword matches the query as a case-insensitive substring of description,
// specialty, facility or provider, ANDed with the filters. Every hit scores
// result.KeywordScore. An empty result is not an error.
func (s *Service) Keyword(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("keyword").Observe(time.Since(start).Seconds())
	}()

	results, err := s.keyword(ctx, req)
	if err != nil {
		return Response{}, err
	}
	s.count("keyword", mode.Keyword)
	return Response{Results: results, Mode: mode.Keyword}, nil
}

func (s *Service) keyword(ctx context.Context, req request.Request) ([]result.Result, error) {
	entries, err := s.repo.FindPublished(ctx, query.Query{
		Filters: req.Filters(),
		Text:    req.Query(),
		Limit:   req.TopK(),
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	if len(entries) > req.TopK() {
		entries = entries[:req.TopK()]
	}
	results := make([]result.Result, len(entries))
	for i, e := range entries {
		results[i] = result.NewKeyword(e)
	}
	return results, nil
}
