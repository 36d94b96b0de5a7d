// Package redis is the cache store behind embedding vectors and budget counters.
// Only plain string commands are issued, so Redis and Valkey both work.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/triage/internal/db"
)

var _ db.Store = (*Store)(nil)

// Readiness polling bounds.
const (
	firstRetryDelay = 50 * time.Millisecond
	maxRetryDelay   = time.Second
)

// Config holds connection parameters. Addrs is required.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store talks to the cache through a rueidis client.
type Store struct {
	client rueidis.Client
}

// NewStore dials the cache. Client-side caching stays off: values are
// write-once embeddings and counters that change on every call.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("cache store: at least one address is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cache store: connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

func newStoreWithClient(c rueidis.Client) *Store {
	return &Store{client: c}
}

// Ping issues PING.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings right away and then with a doubling delay until the cache
// answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := firstRetryDelay
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cache store not ready after %s: %w (last error: %v)", timeout, ctx.Err(), err)
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
