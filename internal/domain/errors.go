package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed search, autocomplete or checklist request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrVectorDimMismatch signals a vector of unexpected length.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
