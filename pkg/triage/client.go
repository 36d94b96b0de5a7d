package triage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/memory"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/postgres"
	"github.com/kailas-cloud/triage/internal/repository/knowledge/sqlite"
	checklistuc "github.com/kailas-cloud/triage/internal/usecase/checklist"
	embeddinguc "github.com/kailas-cloud/triage/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/triage/internal/usecase/health"
	searchuc "github.com/kailas-cloud/triage/internal/usecase/search"
)

const (
	defaultWorkers        = 16
	defaultSuggestLimit   = 10
	defaultDiagnosisLimit = 10
	sdkProvider           = "sdk"
)

// Internal interfaces for substitution in tests.
type store interface {
	FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error)
	Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error)
	Insert(ctx context.Context, entries []knowledge.Entry) error
	Ping(ctx context.Context) error
	Close() error
}

type searchUseCase interface {
	Semantic(ctx context.Context, req request.Request) (searchuc.Response, error)
	Keyword(ctx context.Context, req request.Request) (searchuc.Response, error)
	Suggest(ctx context.Context, partial, fieldName string, limit int) ([]string, error)
}

type checklistUseCase interface {
	Checklist(ctx context.Context, specialty, provider, facility, diagnosis string) (checklistuc.Result, error)
	ByDiagnosis(ctx context.Context, diagnosis string, limit int) ([]checklistuc.Guidance, string, error)
}

// Client is the triage SDK entry point.
type Client struct {
	store         store
	fanout        *searchuc.FanOut
	searchSvc     searchUseCase
	checklistSvc  checklistUseCase
	healthSvc     healthChecker
	minSimilarity float64
	obs           *observer
}

// New creates a Client and opens the configured store.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:  driverMemory,
		workers: defaultWorkers,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("init observer: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fanout, err := searchuc.NewFanOut(cfg.workers)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	logger := zap.NewNop()
	var inner domain.Embedder
	if cfg.embedder != nil {
		inner = embeddinguc.NewInstrumentedEmbedder(
			&embedderAdapter{inner: cfg.embedder}, sdkProvider, "custom", nil, logger,
		)
	}
	embed := embeddinguc.NewAdapter(inner, embeddinguc.AdapterConfig{
		Provider:   sdkProvider,
		Timeout:    cfg.embeddingTimeout,
		Dimensions: cfg.dimensions,
	}, logger)

	minSim := request.DefaultMinSimilarity
	if cfg.minSimilarity != nil {
		minSim = *cfg.minSimilarity
	}

	searchSvc := searchuc.New(st, embed, fanout, logger,
		searchuc.WithStrictAutocomplete(cfg.strictAutocomplete))

	var embedCheck healthuc.EmbeddingChecker
	if embed.Available() {
		embedCheck = embed
	}

	return &Client{
		store:         st,
		fanout:        fanout,
		searchSvc:     searchSvc,
		checklistSvc:  checklistAdapter{checklistuc.New(st, searchSvc, minSim)},
		healthSvc:     healthuc.New(st, embedCheck, nil),
		minSimilarity: minSim,
		obs:           obs,
	}, nil
}

func openStore(ctx context.Context, cfg *clientConfig) (store, error) {
	switch cfg.driver {
	case driverMemory:
		return memory.New(), nil
	case driverSQLite:
		s, err := sqlite.Open(ctx, cfg.dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	case driverPostgres:
		s, err := postgres.Open(ctx, cfg.dsn, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.driver)
}

// Close releases the worker pool and the store.
func (c *Client) Close() error {
	if c.fanout != nil {
		c.fanout.Release()
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Ping checks that the store is reachable.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()
	return c.store.Ping(ctx)
}

// Insert validates and upserts entries. Entries with an existing id are replaced.
func (c *Client) Insert(ctx context.Context, entries ...Entry) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("insert", start, err) }()

	domEntries := make([]knowledge.Entry, len(entries))
	for i, e := range entries {
		d, err := toDomainEntry(e)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		domEntries[i] = d
	}
	if err := c.store.Insert(ctx, domEntries); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// Search ranks entries semantically, falling back to keyword matching.
func (c *Client) Search(ctx context.Context, req SearchRequest) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()
	return c.search(ctx, req, c.searchSvc.Semantic)
}

// Keyword runs a keyword-only search. It never calls the embedder.
func (c *Client) Keyword(ctx context.Context, req SearchRequest) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("keyword", start, err) }()
	return c.search(ctx, req, c.searchSvc.Keyword)
}

func (c *Client) search(
	ctx context.Context, req SearchRequest,
	run func(context.Context, request.Request) (searchuc.Response, error),
) (SearchResult, error) {
	f, err := toDomainFilters(req.Filters)
	if err != nil {
		return SearchResult{}, err
	}
	topK := req.TopK
	if topK == 0 {
		topK = request.DefaultTopK
	}
	minSim := c.minSimilarity
	if req.MinSimilarity != nil {
		minSim = *req.MinSimilarity
	}
	r, err := request.New(req.Query, f, topK, minSim)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := run(ctx, r)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{
		Hits:            fromDomainResults(resp.Results),
		Mode:            string(resp.Mode),
		EmbeddingTokens: usage.TotalTokens(),
	}, nil
}

// Suggest returns distinct field values containing partial, ascending.
// A non-positive limit means 10.
func (c *Client) Suggest(ctx context.Context, fieldName, partial string, limit int) (values []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggest", start, err) }()
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	return c.searchSvc.Suggest(ctx, partial, fieldName, limit)
}

// Checklist builds the pre-appointment checklist for a specialty.
func (c *Client) Checklist(ctx context.Context, req ChecklistRequest) (cl Checklist, err error) {
	start := time.Now()
	defer func() { c.obs.observe("checklist", start, err) }()
	res, err := c.checklistSvc.Checklist(ctx, req.Specialty, req.Provider, req.Facility, req.Diagnosis)
	if err != nil {
		return Checklist{}, err
	}
	return fromDomainChecklist(res), nil
}

// ByDiagnosis finds where a diagnosis should be booked. A non-positive limit means 10.
// The returned mode tells whether guidance came from semantic or keyword matching.
func (c *Client) ByDiagnosis(ctx context.Context, diagnosis string, limit int) (gs []Guidance, mode string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("by_diagnosis", start, err) }()
	if limit <= 0 {
		limit = defaultDiagnosisLimit
	}
	res, m, err := c.checklistSvc.ByDiagnosis(ctx, diagnosis, limit)
	if err != nil {
		return nil, "", err
	}
	return fromDomainGuidance(res), m, nil
}

// checklistAdapter flattens the mode type for the public API.
type checklistAdapter struct {
	svc *checklistuc.Service
}

func (a checklistAdapter) Checklist(ctx context.Context, specialty, provider, facility, diagnosis string) (checklistuc.Result, error) {
	return a.svc.Checklist(ctx, specialty, provider, facility, diagnosis)
}

func (a checklistAdapter) ByDiagnosis(ctx context.Context, diagnosis string, limit int) ([]checklistuc.Guidance, string, error) {
	gs, m, err := a.svc.ByDiagnosis(ctx, diagnosis, limit)
	return gs, string(m), err
}
