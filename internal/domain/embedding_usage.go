package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding activity for a single request.
// The handler puts a mutable pointer into the context before calling the service;
// the search engine records tokens and skipped candidates; the handler reads it for
// response headers. Candidate fan-out writes concurrently, hence the mutex.
type EmbeddingUsage struct {
	mu          sync.Mutex
	totalTokens int
	calls       int
	failures    int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records a successful embedding call and the tokens it consumed.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.totalTokens += n
	u.calls++
	u.mu.Unlock()
}

// AddFailure records an embedding call that produced no usable vector.
func (u *EmbeddingUsage) AddFailure() {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.calls++
	u.failures++
	u.mu.Unlock()
}

// TotalTokens returns the tokens consumed so far.
func (u *EmbeddingUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens
}

// Calls returns the number of embedding attempts, successful or not.
func (u *EmbeddingUsage) Calls() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// Failures returns the number of embedding attempts that failed.
func (u *EmbeddingUsage) Failures() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.failures
}
