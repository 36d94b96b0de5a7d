package triage

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverMemory   = "memory"
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

type clientConfig struct {
	driver string
	dsn    string

	embedder         Embedder
	embeddingTimeout time.Duration
	dimensions       int

	minSimilarity      *float64
	workers            int
	strictAutocomplete bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemory keeps entries in process memory (default).
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.dsn = ""
	})
}

// WithSQLite stores entries in the SQLite database at path (":memory:" works).
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverSQLite
		c.dsn = path
	})
}

// WithPostgres stores entries in PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithEmbedder enables semantic search.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingTimeout bounds each embedding call. Default: 2s.
func WithEmbeddingTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingTimeout = d
	})
}

// WithVectorDimensions rejects vectors of any other length. Default: accept any.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithMinSimilarity sets the cosine threshold a semantic hit must reach. Default: 0.5.
func WithMinSimilarity(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSimilarity = &v
	})
}

// WithWorkers sizes the candidate embedding pool. Default: 16.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithStrictAutocomplete makes Suggest reject unknown field names.
func WithStrictAutocomplete() Option {
	return optionFunc(func(c *clientConfig) {
		c.strictAutocomplete = true
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
