package checklist

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain"
	domchecklist "github.com/kailas-cloud/triage/internal/domain/checklist"
	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/mode"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
)

// Diagnosis lookup limits.
const (
	MinDiagnosisLength = 2
	MaxDiagnosisLimit  = 50
	// checklistGuidanceLimit caps guidance attached to a checklist.
	checklistGuidanceLimit = 3
)

// Guidance tells the scheduler where a diagnosis should be booked.
type Guidance struct {
	Diagnosis            string
	RecommendedSpecialty string
	Facility             string
	Provider             *string
	Guidance             string
	Confidence           float64
	Source               string
}

// Result is a checklist plus optional diagnosis guidance.
type Result struct {
	domchecklist.Checklist
	Diagnosis string
	Guidance  []Guidance
	Mode      mode.Mode
}

// Service builds pre-appointment checklists.
type Service struct {
	repo          Repository
	searcher      Searcher
	minSimilarity float64
}

// New creates a checklist service.
func New(repo Repository, searcher Searcher, minSimilarity float64) *Service {
	return &Service{repo: repo, searcher: searcher, minSimilarity: minSimilarity}
}

// Checklist gathers requirements and provider preferences for a specialty.
// When diagnosis is set, matching diagnosis guidance is attached.
func (s *Service) Checklist(ctx context.Context, specialty, provider, facility, diagnosis string) (Result, error) {
	specialty = strings.TrimSpace(specialty)
	provider = strings.TrimSpace(provider)
	facility = strings.TrimSpace(facility)
	diagnosis = strings.TrimSpace(diagnosis)
	if specialty == "" {
		return Result{}, fmt.Errorf("%w: specialty is required", domain.ErrInvalidRequest)
	}
	if diagnosis != "" && len([]rune(diagnosis)) < MinDiagnosisLength {
		return Result{}, fmt.Errorf("%w: diagnosis must be at least %d characters", domain.ErrInvalidRequest, MinDiagnosisLength)
	}
	f, err := filter.New(filter.Params{Specialty: specialty, Facility: facility})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	entries, err := s.repo.FindPublished(ctx, query.Query{Filters: f})
	if err != nil {
		return Result{}, fmt.Errorf("find checklist entries: %w", err)
	}

	res := Result{Checklist: domchecklist.Build(specialty, provider, facility, entries)}
	if diagnosis == "" {
		return res, nil
	}
	res.Diagnosis = diagnosis
	res.Guidance, res.Mode, err = s.ByDiagnosis(ctx, diagnosis, checklistGuidanceLimit)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// ByDiagnosis finds diagnosis-to-specialty guidance through semantic search,
// which degrades to keyword matching like any other search.
func (s *Service) ByDiagnosis(ctx context.Context, diagnosis string, limit int) ([]Guidance, mode.Mode, error) {
	diagnosis = strings.TrimSpace(diagnosis)
	if len([]rune(diagnosis)) < MinDiagnosisLength {
		return nil, "", fmt.Errorf("%w: diagnosis must be at least %d characters", domain.ErrInvalidRequest, MinDiagnosisLength)
	}
	if limit <= 0 || limit > MaxDiagnosisLimit {
		return nil, "", fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, MaxDiagnosisLimit)
	}

	f := filter.Filters{}.WithKnowledgeType(knowledge.TypeDiagnosisSpecialty)
	req, err := request.New(diagnosis, f, limit, s.minSimilarity)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	resp, err := s.searcher.Semantic(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("diagnosis search: %w", err)
	}

	out := make([]Guidance, len(resp.Results))
	for i, r := range resp.Results {
		e := r.Entry()
		out[i] = Guidance{
			Diagnosis:            diagnosis,
			RecommendedSpecialty: e.Specialty(),
			Facility:             e.Facility(),
			Provider:             e.Provider(),
			Guidance:             e.Description(),
			Confidence:           r.Score(),
			Source:               domchecklist.Source(e),
		}
	}
	return out, resp.Mode, nil
}
