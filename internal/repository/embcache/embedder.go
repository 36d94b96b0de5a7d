// Package embcache keeps embedding vectors in the cache store so the same
// candidate description is billed once, not on every search.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/db"
	"github.com/kailas-cloud/triage/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// Lookup outcomes, used as the "result" metric label.
const (
	outcomeHit     = "hit"
	outcomeMiss    = "miss"
	outcomeCorrupt = "corrupt"
	outcomeError   = "error"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder decorates an embedder with a read-through vector cache.
// Cache failures never fail an Embed call; they only cost a provider round trip.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	model   string
	dims    int
	ttl     time.Duration
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. dims is the requested vector size, 0 for the model
// default. lookups carries one "result" label and may be nil.
// ttl <= 0 keeps vectors forever.
func New(
	inner domain.Embedder,
	s store,
	model string,
	dims int,
	ttl time.Duration,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:   inner,
		store:   s,
		model:   model,
		dims:    dims,
		ttl:     ttl,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed serves text from the cache when possible. Cached vectors report zero
// tokens because the provider was not called.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	vec, outcome := c.lookup(ctx, key)
	c.count(outcome)
	if outcome == outcomeHit {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(res.Embedding) == 0 {
		return res, nil
	}
	if err := c.store.SetWithTTL(ctx, key, vectorToBytes(res.Embedding), c.ttl); err != nil {
		c.logger.Warn("Embedding not cached", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// HealthCheck reports the provider's health; the cache itself is probed separately.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := c.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx)
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, string) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, outcomeMiss
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, outcomeError
	case len(data) == 0:
		return nil, outcomeMiss
	}
	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, outcomeCorrupt
	}
	return vec, outcomeHit
}

func (c *CachedEmbedder) count(outcome string) {
	if c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(outcome).Inc()
}

// cacheKey hashes model, dimensions and text so changing either setting
// never serves vectors of the old shape.
func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write(strconv.AppendInt(nil, int64(c.dims), 10))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Vectors are stored as packed little-endian float32.
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector is %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, 0, len(data)/4)
	for off := 0; off < len(data); off += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	return vec, nil
}
