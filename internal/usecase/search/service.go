package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/mode"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	"github.com/kailas-cloud/triage/internal/domain/search/result"
	"github.com/kailas-cloud/triage/internal/logger"
	"github.com/kailas-cloud/triage/internal/metrics"
)

// Fallback reasons.
const (
	fallbackQueryEmbedding = "query_embedding"
	fallbackBelowThreshold = "below_threshold"
)

// Response is a ranked result set and the mode that produced it.
type Response struct {
	Results []result.Result
	Mode    mode.Mode
}

// Service answers knowledge searches: semantic ranking with a keyword fallback.
type Service struct {
	repo   Repository
	embed  Embedder
	fanout *FanOut
	strict bool
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStrictAutocomplete makes Suggest reject unknown field names instead of
// falling back to specialty.
func WithStrictAutocomplete(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// New creates a search service.
func New(repo Repository, embed Embedder, fanout *FanOut, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, embed: embed, fanout: fanout, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Semantic ranks published entries by cosine similarity to the query.
// When the query cannot be embedded or nothing reaches the threshold, the keyword
// matcher answers instead and the response mode is KeywordFallback.
// Store errors and caller cancellation are returned; embedding failures are not.
func (s *Service) Semantic(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds())
	}()

	qvec, ok := s.embed.Embed(ctx, req.Query())
	if !ok {
		if err := ctx.Err(); err != nil {
			return Response{}, fmt.Errorf("embed query: %w", err)
		}
		return s.fallback(ctx, req, fallbackQueryEmbedding)
	}

	candidates, err := s.repo.FindPublished(ctx, query.Query{Filters: req.Filters()})
	if err != nil {
		return Response{}, fmt.Errorf("find candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.count("semantic", mode.Semantic)
		return Response{Results: []result.Result{}, Mode: mode.Semantic}, nil
	}

	scored, err := s.score(ctx, qvec, candidates)
	if err != nil {
		return Response{}, err
	}

	kept := scored[:0]
	for _, r := range scored {
		if r.Score() >= req.MinSimilarity() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return s.fallback(ctx, req, fallbackBelowThreshold)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score() > kept[j].Score() })
	if len(kept) > req.TopK() {
		kept = kept[:req.TopK()]
	}

	s.count("semantic", mode.Semantic)
	return Response{Results: kept, Mode: mode.Semantic}, nil
}

// score embeds candidate descriptions and pairs each usable vector with its similarity.
// Candidates without a comparable vector are dropped; fetch order is preserved.
func (s *Service) score(ctx context.Context, qvec []float32, candidates []knowledge.Entry) ([]result.Result, error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Description()
	}
	vecs := s.fanout.EmbedAll(ctx, s.embed, texts)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}

	scored := make([]result.Result, 0, len(candidates))
	for i, c := range candidates {
		if vecs[i] == nil {
			metrics.SearchCandidatesSkippedTotal.WithLabelValues("embedding").Inc()
			continue
		}
		sim, ok := cosine(qvec, vecs[i])
		if !ok {
			reason := "zero_norm"
			if len(vecs[i]) != len(qvec) {
				reason = "dimension"
			}
			metrics.SearchCandidatesSkippedTotal.WithLabelValues(reason).Inc()
			continue
		}
		scored = append(scored, result.New(c, sim))
	}
	metrics.SearchCandidatesScored.Observe(float64(len(scored)))
	if skipped := len(candidates) - len(scored); skipped > 0 {
		logger.FromContext(ctx).Debug("Candidates skipped",
			zap.Int("candidates", len(candidates)),
			zap.Int("skipped", skipped),
		)
	}
	return scored, nil
}

func (s *Service) fallback(ctx context.Context, req request.Request, reason string) (Response, error) {
	metrics.SearchFallbackTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("Semantic search degraded to keyword matching",
		zap.String("reason", reason),
		zap.Int("top_k", req.TopK()),
	)
	results, err := s.keyword(ctx, req)
	if err != nil {
		return Response{}, err
	}
	s.count("semantic", mode.KeywordFallback)
	return Response{Results: results, Mode: mode.KeywordFallback}, nil
}

func (s *Service) count(operation string, m mode.Mode) {
	metrics.SearchRequestsTotal.WithLabelValues(operation, string(m)).Inc()
}
