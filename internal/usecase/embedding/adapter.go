package embedding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/metrics"
)

// DefaultTimeout bounds a single embedding call, rate limiter wait included.
const DefaultTimeout = 2 * time.Second

// Failure kinds reported in logs and metrics.
const (
	reasonUnconfigured = "unconfigured"
	reasonTimeout      = "timeout"
	reasonCanceled     = "canceled"
	reasonQuota        = "quota"
	reasonRateLimited  = "rate_limited"
	reasonProvider     = "provider_error"
	reasonEmpty        = "empty_vector"
	reasonDimension    = "dimension_mismatch"
)

// AdapterConfig configures the adapter. Zero values mean defaults:
// DefaultTimeout, any vector length, no rate limit.
type AdapterConfig struct {
	Provider   string
	Timeout    time.Duration
	Dimensions int
	// RatePerSecond limits outbound calls; Burst defaults to 1.
	RatePerSecond float64
	Burst         int
}

// Adapter turns a fallible embedder into a yes/no vector source.
// Every failure collapses to ok == false; the cause is logged and counted, never returned.
type Adapter struct {
	inner   domain.Embedder
	cfg     AdapterConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewAdapter creates an Adapter. A nil inner embedder yields an adapter that is always unavailable.
func NewAdapter(inner domain.Embedder, cfg AdapterConfig, logger *zap.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Provider == "" {
		cfg.Provider = "none"
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &Adapter{inner: inner, cfg: cfg, limiter: limiter, logger: logger}
}

// Available reports whether a provider is configured at all.
func (a *Adapter) Available() bool { return a.inner != nil }

// Embed returns the vector for text, or ok == false when no usable vector could be obtained.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, bool) {
	usage := domain.UsageFromContext(ctx)
	if a.inner == nil {
		a.fail(reasonUnconfigured, nil)
		usage.AddFailure()
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			a.fail(classify(ctx, err, reasonRateLimited), err)
			usage.AddFailure()
			return nil, false
		}
	}

	res, err := a.inner.Embed(ctx, text)
	if err != nil {
		a.fail(classify(ctx, err, reasonProvider), err)
		usage.AddFailure()
		return nil, false
	}
	if len(res.Embedding) == 0 {
		a.fail(reasonEmpty, nil)
		usage.AddFailure()
		return nil, false
	}
	if a.cfg.Dimensions > 0 && len(res.Embedding) != a.cfg.Dimensions {
		a.fail(reasonDimension, domain.ErrVectorDimMismatch)
		usage.AddFailure()
		return nil, false
	}

	usage.AddTokens(res.TotalTokens)
	return res.Embedding, true
}

// HealthCheck reports provider availability.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if a.inner == nil {
		return domain.ErrEmbeddingUnavailable
	}
	hc, ok := a.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	return hc.HealthCheck(ctx) //nolint:wrapcheck // surfaced as a health status only
}

func (a *Adapter) fail(reason string, err error) {
	metrics.EmbeddingUnavailableTotal.WithLabelValues(a.cfg.Provider, reason).Inc()
	fields := []zap.Field{
		zap.String("provider", a.cfg.Provider),
		zap.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if reason == reasonUnconfigured || reason == reasonCanceled {
		a.logger.Debug("Embedding unavailable", fields...)
		return
	}
	a.logger.Warn("Embedding unavailable", fields...)
}

func classify(ctx context.Context, err error, fallback string) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return reasonCanceled
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return reasonQuota
	case errors.Is(err, domain.ErrRateLimited):
		return reasonRateLimited
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return reasonUnconfigured
	}
	return fallback
}
