// Package chi exposes the knowledge search service over HTTP with go-chi.
package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	domusage "github.com/kailas-cloud/triage/internal/domain/usage"
	"github.com/kailas-cloud/triage/internal/metrics"
	healthuc "github.com/kailas-cloud/triage/internal/usecase/health"
	searchuc "github.com/kailas-cloud/triage/internal/usecase/search"
)

// Embedding usage response headers.
const (
	EmbeddingTokensHeader   = "X-Embedding-Tokens"
	EmbeddingFailuresHeader = "X-Embedding-Failures"
)

// Config holds request defaults.
type Config struct {
	DefaultTopK           int
	MinSimilarity         float64
	DefaultSuggestLimit   int
	DefaultDiagnosisLimit int
}

// DefaultConfig returns the defaults used when a field is zero.
func DefaultConfig() Config {
	return Config{
		DefaultTopK:           request.DefaultTopK,
		MinSimilarity:         request.DefaultMinSimilarity,
		DefaultSuggestLimit:   10,
		DefaultDiagnosisLimit: 10,
	}
}

// Server implements the HTTP handlers.
type Server struct {
	search    Searcher
	checklist Checklister
	health    HealthChecker
	usage     UsageReporter
	cfg       Config
}

// NewServer creates an HTTP API server. Zero config fields take DefaultConfig values.
func NewServer(search Searcher, checklist Checklister, health HealthChecker, usage UsageReporter, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.DefaultSuggestLimit <= 0 {
		cfg.DefaultSuggestLimit = def.DefaultSuggestLimit
	}
	if cfg.DefaultDiagnosisLimit <= 0 {
		cfg.DefaultDiagnosisLimit = def.DefaultDiagnosisLimit
	}
	return &Server{
		search:    search,
		checklist: checklist,
		health:    health,
		usage:     usage,
		cfg:       cfg,
	}
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/knowledge", func(r chi.Router) {
		r.Get("/smart-search", s.SmartSearch)
		r.Get("/search", s.KeywordSearch)
		r.Get("/autocomplete/{field}", s.Autocomplete)
		r.Get("/checklist", s.Checklist)
		r.Get("/checklist/by-diagnosis", s.ChecklistByDiagnosis)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/usage", s.GetUsage)
	r.Get("/metrics", s.Metrics)
}

// SmartSearch handles GET /knowledge/smart-search.
func (s *Server) SmartSearch(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.search.Semantic)
}

// KeywordSearch handles GET /knowledge/search.
func (s *Server) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.search.Keyword)
}

type searchFunc func(ctx context.Context, req request.Request) (searchuc.Response, error)

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, run searchFunc) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	req, err := s.searchRequest(params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := run(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	w.Header().Set(metrics.SearchModeHeader, string(resp.Mode))
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        req.Query(),
		Mode:         string(resp.Mode),
		Results:      resultsToResponse(resp.Results),
		TotalResults: len(resp.Results),
	})
}

func (s *Server) searchRequest(p SearchParams) (request.Request, error) {
	f, err := filter.New(filter.Params{
		Facility:       deref(p.Facility),
		Specialty:      deref(p.Specialty),
		Provider:       deref(p.Provider),
		KnowledgeType:  deref(p.KnowledgeType),
		ContinuityOnly: p.ContinuityCareOnly,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req, err := request.New(p.Q, f, intOr(p.TopK, s.cfg.DefaultTopK), s.cfg.MinSimilarity)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

// Autocomplete handles GET /knowledge/autocomplete/{field}.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	params, err := bindAutocompleteParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	suggestions, err := s.search.Suggest(r.Context(), params.Q, params.Field, intOr(params.Limit, s.cfg.DefaultSuggestLimit))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AutocompleteResponse{
		Field:       params.Field,
		Query:       params.Q,
		Suggestions: suggestions,
	})
}

// Checklist handles GET /knowledge/checklist.
func (s *Server) Checklist(w http.ResponseWriter, r *http.Request) {
	params, err := bindChecklistParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.checklist.Checklist(ctx,
		params.Specialty, deref(params.Provider), deref(params.Facility), deref(params.Diagnosis))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	if res.Mode != "" {
		w.Header().Set(metrics.SearchModeHeader, string(res.Mode))
	}
	writeJSON(w, http.StatusOK, checklistToResponse(res))
}

// ChecklistByDiagnosis handles GET /knowledge/checklist/by-diagnosis.
func (s *Server) ChecklistByDiagnosis(w http.ResponseWriter, r *http.Request) {
	params, err := bindDiagnosisParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	guidance, m, err := s.checklist.ByDiagnosis(ctx, params.Diagnosis, intOr(params.Limit, s.cfg.DefaultDiagnosisLimit))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	w.Header().Set(metrics.SearchModeHeader, string(m))
	writeJSON(w, http.StatusOK, DiagnosisResponse{
		Diagnosis:    params.Diagnosis,
		Mode:         string(m),
		Guidance:     guidanceToResponse(guidance),
		TotalResults: len(guidance),
	})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	params, err := bindUsageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	period, err := domusage.ParsePeriod(deref(params.Period))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:          string(report.Period()),
		PeriodStart:     report.PeriodStart(),
		PeriodEnd:       report.PeriodEnd(),
		TokensUsed:      report.TokensUsed(),
		TokensLimit:     report.TokensLimit(),
		TokensRemaining: report.TokensRemaining(),
		Exhausted:       report.IsExhausted(),
	})
}

// HealthCheck handles GET /health. Degraded still answers 200: keyword search works.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// setUsageHeaders reports embedding spend for requests that made embedding calls.
func setUsageHeaders(w http.ResponseWriter, u *domain.EmbeddingUsage) {
	if u.Calls() == 0 {
		return
	}
	w.Header().Set(EmbeddingTokensHeader, strconv.Itoa(u.TotalTokens()))
	w.Header().Set(EmbeddingFailuresHeader, strconv.Itoa(u.Failures()))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
