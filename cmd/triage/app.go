package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/config"
	dbRedis "github.com/kailas-cloud/triage/internal/db/redis"
	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/metrics"
	budgetrepo "github.com/kailas-cloud/triage/internal/repository/budget"
	"github.com/kailas-cloud/triage/internal/repository/embcache"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/memory"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/postgres"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/sqlite"
	"github.com/kailas-cloud/triage/internal/seed"
	chiTransport "github.com/kailas-cloud/triage/internal/transport/chi"
	ollamaEmb "github.com/kailas-cloud/triage/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/triage/internal/transport/openai"
	checklistuc "github.com/kailas-cloud/triage/internal/usecase/checklist"
	embeddinguc "github.com/kailas-cloud/triage/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/triage/internal/usecase/health"
	searchuc "github.com/kailas-cloud/triage/internal/usecase/search"
	usageuc "github.com/kailas-cloud/triage/internal/usecase/usage"
)

// knowledgeStore is what every record store backend provides.
type knowledgeStore interface {
	FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error)
	Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error)
	Insert(ctx context.Context, entries []knowledge.Entry) error
	Ping(ctx context.Context) error
	Close() error
}

// app is the composition root: every dependency is built here and nowhere else.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	store  knowledgeStore
	cache  *dbRedis.Store
	budget *embeddinguc.BudgetTracker
	embed  *embeddinguc.Adapter
	fanout *searchuc.FanOut

	search    *searchuc.Service
	checklist *checklistuc.Service
	health    *healthuc.Service
	usage     *usageuc.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	a := &app{cfg: cfg, logger: logger}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	if cfg.Cache.Enabled() {
		if err := a.connectCache(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.Embedding.Budget.Enabled() {
		a.budget = embeddinguc.NewBudgetTracker(embeddinguc.BudgetConfig{
			Provider:     cfg.Embedding.Provider,
			DailyLimit:   cfg.Embedding.Budget.DailyTokenLimit,
			MonthlyLimit: cfg.Embedding.Budget.MonthlyTokenLimit,
			Action:       embeddinguc.BudgetAction(cfg.Embedding.Budget.Action),
		}, logger)
		if a.cache != nil {
			a.budget.WithStore(ctx, budgetrepo.New(a.cache, 0, 0))
		}
	}

	inner, err := a.buildEmbedder()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.embed = embeddinguc.NewAdapter(inner, embeddinguc.AdapterConfig{
		Provider:      cfg.Embedding.Provider,
		Timeout:       time.Duration(cfg.Embedding.TimeoutMS) * time.Millisecond,
		Dimensions:    cfg.Embedding.Dimensions,
		RatePerSecond: cfg.Embedding.RatePerSecond,
		Burst:         cfg.Embedding.Burst,
	}, logger)

	a.fanout, err = searchuc.NewFanOut(cfg.Search.Workers)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	a.search = searchuc.New(a.store, a.embed, a.fanout, logger,
		searchuc.WithStrictAutocomplete(cfg.Search.StrictAutocompleteField))
	a.checklist = checklistuc.New(a.store, a.search, cfg.Search.MinSim())

	// nil interfaces, not typed nil pointers: health treats nil as disabled
	var embedCheck healthuc.EmbeddingChecker
	if a.embed.Available() {
		embedCheck = a.embed
	}
	var cachePing healthuc.Pinger
	if a.cache != nil {
		cachePing = a.cache
	}
	a.health = healthuc.New(a.store, embedCheck, cachePing)

	var budgetReader usageuc.BudgetReader
	if a.budget != nil {
		budgetReader = a.budget
	}
	a.usage = usageuc.New(budgetReader)

	logger.Info("Application ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Bool("cache", a.cache != nil),
		zap.Bool("budget", a.budget != nil),
	)
	return a, nil
}

func (a *app) connectCache(ctx context.Context) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Cache.Addrs,
		Username: a.cfg.Cache.Username,
		Password: a.cfg.Cache.Password,
		DB:       a.cfg.Cache.DB,
	})
	if err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}
	timeout := time.Duration(a.cfg.Cache.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return fmt.Errorf("cache not ready: %w", err)
	}
	a.cache = store
	a.logger.Info("Connected to cache", zap.Strings("addrs", a.cfg.Cache.Addrs))
	return nil
}

// buildEmbedder assembles the decorator chain: provider -> cache -> budget.
// A nil result means embeddings are disabled and search runs in keyword mode.
func (a *app) buildEmbedder() (domain.Embedder, error) {
	cfg := a.cfg.Embedding

	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			a.logger.Warn("No OpenAI API key configured, semantic search falls back to keywords",
				zap.String("embedding_provider", cfg.Provider))
			return nil, nil
		}
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     a.logger,
		})
	case config.ProviderOllama:
		emb, err := ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			ServerURL: cfg.BaseURL,
			Model:     cfg.Model,
			Provider:  cfg.Provider,
			Logger:    a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		base = emb
	default:
		return nil, nil
	}

	embedder := base
	if a.cache != nil {
		ttl := time.Duration(a.cfg.Cache.TTLSec) * time.Second
		embedder = embcache.New(embedder, a.cache, cfg.Model, cfg.Dimensions, ttl, metrics.EmbeddingCacheTotal, a.logger)
	}

	var budget embeddinguc.BudgetChecker
	if a.budget != nil {
		budget = a.budget
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, budget, a.logger), nil
}

// seedOnStart loads the configured fixture when seed.on_start is set.
func (a *app) seedOnStart(ctx context.Context) error {
	if !a.cfg.Seed.OnStart || a.cfg.Seed.File == "" {
		return nil
	}
	if _, err := seed.Run(ctx, a.store, a.cfg.Seed.File, a.logger); err != nil {
		return fmt.Errorf("seed on start: %w", err)
	}
	return nil
}

func (a *app) server() *chiTransport.Server {
	return chiTransport.NewServer(a.search, a.checklist, a.health, a.usage, chiTransport.Config{
		DefaultTopK:           a.cfg.Search.DefaultTopK,
		MinSimilarity:         a.cfg.Search.MinSim(),
		DefaultSuggestLimit:   a.cfg.Search.AutocompleteLimit,
		DefaultDiagnosisLimit: a.cfg.Search.DiagnosisLimit,
	})
}

// Close releases every resource the app opened.
func (a *app) Close() {
	if a.fanout != nil {
		a.fanout.Release()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close knowledge store", zap.Error(err))
		}
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (knowledgeStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open knowledge store: %w", err)
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open knowledge store: %w", err)
		}
		return repo, nil
	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
