// Package openai embeds text through any OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/metrics"
)

// Config holds provider settings. BaseURL overrides the OpenAI endpoint for
// compatible gateways; Dimensions > 0 asks the model for shortened vectors.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
}

// Embedder calls the embeddings API once per text.
type Embedder struct {
	client   *openai.Client
	req      openai.EmbeddingRequest
	provider string
	logger   *zap.Logger
}

// NewEmbedder builds an Embedder from cfg.
func NewEmbedder(cfg *Config) *Embedder {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client: openai.NewClientWithConfig(cc),
		req: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			User:           cfg.User,
			Dimensions:     max(cfg.Dimensions, 0),
		},
		provider: cfg.Provider,
		logger:   logger,
	}
}

// Embed implements domain.Embedder. Failures wrap one of the domain embedding sentinels.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.req
	req.Input = []string{text}

	began := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	took := time.Since(began)

	switch {
	case err != nil:
		err = classifyError(err)
		e.failed(errorType(err))
		e.logger.Debug("Embeddings API call failed", zap.Duration("took", took), zap.Error(err))
		return domain.EmbeddingResult{}, err
	case len(resp.Data) == 0:
		e.failed("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("embeddings API returned no data: %w", domain.ErrEmbeddingProviderError)
	}

	model := string(e.req.Model)
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(took.Seconds())
	if u := resp.Usage; u.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(u.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(u.TotalTokens))
	}
	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which is not billed.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) failed(kind string) {
	model := string(e.req.Model)
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, kind).Inc()
}

// classifyError wraps err with a domain sentinel. HTTP 429 means ErrRateLimited,
// or ErrEmbeddingQuotaExceeded when the body talks about quota. The original error
// stays in the chain so cancellation is still visible to errors.Is.
func classifyError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := bodyDetail(reqErr.Body)
		return fmt.Errorf("embeddings API %d: %s: %w",
			reqErr.HTTPStatusCode, detail, statusSentinel(reqErr.HTTPStatusCode, detail))
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		return fmt.Errorf("embeddings API %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, statusSentinel(apiErr.HTTPStatusCode, code+" "+apiErr.Type))
	}
	return fmt.Errorf("embeddings request: %w: %w", domain.ErrEmbeddingProviderError, err)
}

func statusSentinel(status int, detail string) error {
	switch {
	case status != http.StatusTooManyRequests:
		return domain.ErrEmbeddingProviderError
	case strings.Contains(strings.ToLower(detail), "quota"):
		return domain.ErrEmbeddingQuotaExceeded
	}
	return domain.ErrRateLimited
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "api_error"
}

// bodyDetail pulls the "detail" field some gateways return instead of an
// OpenAI error object, falling back to the raw body.
func bodyDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}
