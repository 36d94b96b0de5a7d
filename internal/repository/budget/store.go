// Package budget persists embedding token counters in the cache store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/triage/internal/db"
)

// Default TTLs keep a counter alive a little past the end of its period.
const (
	DefaultDayTTL   = 48 * time.Hour
	DefaultMonthTTL = 62 * 24 * time.Hour
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements embedding.BudgetStore with INCRBY + EXPIRE NX.
type Store struct {
	store    store
	dayTTL   time.Duration
	monthTTL time.Duration
}

// New creates a budget store. Zero TTLs select the defaults.
func New(s store, dayTTL, monthTTL time.Duration) *Store {
	if dayTTL <= 0 {
		dayTTL = DefaultDayTTL
	}
	if monthTTL <= 0 {
		monthTTL = DefaultMonthTTL
	}
	return &Store{store: s, dayTTL: dayTTL, monthTTL: monthTTL}
}

// IncrBy adds val to the counter and sets its TTL on first write.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget incr %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, s.ttlForKey(key), true); err != nil {
		return fmt.Errorf("budget expire %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget get %s: parse %q: %w", key, data, err)
	}
	return val, nil
}

// Keys look like triage:budget:<provider>:day:2026-01-02 or :month:2026-01.
func (s *Store) ttlForKey(key string) time.Duration {
	if strings.Contains(key, ":day:") {
		return s.dayTTL
	}
	return s.monthTTL
}
