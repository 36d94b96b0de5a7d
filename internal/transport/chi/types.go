package chi

import (
	"time"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/result"
	checklistuc "github.com/kailas-cloud/triage/internal/usecase/checklist"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest    ErrorCode = "bad_request"
	CodeValidation    ErrorCode = "validation_failed"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeNotFound      ErrorCode = "not_found"
	CodeRateLimited   ErrorCode = "rate_limited"
	CodeQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeProviderError ErrorCode = "embedding_provider_error"
	CodeInternal      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// EntryResponse is a knowledge entry as exposed to clients.
type EntryResponse struct {
	ID                   string    `json:"id"`
	MAName               string    `json:"ma_name"`
	Facility             string    `json:"facility"`
	SpecialtyService     string    `json:"specialty_service"`
	ProviderName         *string   `json:"provider_name"`
	KnowledgeType        string    `json:"knowledge_type"`
	IsContinuityCare     bool      `json:"is_continuity_care"`
	KnowledgeDescription string    `json:"knowledge_description"`
	CreatedAt            time.Time `json:"created_at"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	Entry          EntryResponse `json:"entry"`
	RelevanceScore float64       `json:"relevance_score"`
	MatchType      string        `json:"match_type"`
}

// SearchResponse is returned by the search endpoints.
type SearchResponse struct {
	Query        string             `json:"query"`
	Mode         string             `json:"mode"`
	Results      []SearchResultItem `json:"results"`
	TotalResults int                `json:"total_results"`
}

// AutocompleteResponse is returned by the autocomplete endpoint.
type AutocompleteResponse struct {
	Field       string   `json:"field"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// RequirementResponse is a checklist requirement.
type RequirementResponse struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	Source           string `json:"source"`
	Priority         string `json:"priority"`
	FullEntryID      string `json:"full_entry_id"`
	IsContinuityCare bool   `json:"is_continuity_care,omitempty"`
}

// PreferenceResponse is a provider preference.
type PreferenceResponse struct {
	Preference string `json:"preference"`
	Provider   string `json:"provider"`
	Source     string `json:"source"`
}

// GuidanceResponse is diagnosis-to-specialty guidance.
type GuidanceResponse struct {
	Diagnosis            string  `json:"diagnosis"`
	RecommendedSpecialty string  `json:"recommended_specialty"`
	Facility             string  `json:"facility"`
	Provider             *string `json:"provider"`
	Guidance             string  `json:"guidance"`
	Confidence           float64 `json:"confidence"`
	Source               string  `json:"source"`
}

// ChecklistResponse is the pre-appointment checklist.
type ChecklistResponse struct {
	Specialty           string                `json:"specialty"`
	Provider            *string               `json:"provider"`
	Facility            *string               `json:"facility"`
	Diagnosis           *string               `json:"diagnosis,omitempty"`
	Requirements        []RequirementResponse `json:"requirements"`
	ProviderPreferences []PreferenceResponse  `json:"provider_preferences"`
	DiagnosisGuidance   []GuidanceResponse    `json:"diagnosis_guidance,omitempty"`
	TotalRequirements   int                   `json:"total_requirements"`
	TotalPreferences    int                   `json:"total_preferences"`
}

// DiagnosisResponse is returned by the by-diagnosis endpoint.
type DiagnosisResponse struct {
	Diagnosis    string             `json:"diagnosis"`
	Mode         string             `json:"mode"`
	Guidance     []GuidanceResponse `json:"guidance"`
	TotalResults int                `json:"total_results"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageResponse is returned by /usage.
type UsageResponse struct {
	Period          string `json:"period"`
	PeriodStart     int64  `json:"period_start"`
	PeriodEnd       int64  `json:"period_end"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
}

func entryToResponse(e knowledge.Entry) EntryResponse {
	return EntryResponse{
		ID:                   e.ID(),
		MAName:               e.AuthorName(),
		Facility:             e.Facility(),
		SpecialtyService:     e.Specialty(),
		ProviderName:         e.Provider(),
		KnowledgeType:        string(e.Type()),
		IsContinuityCare:     e.IsContinuityCare(),
		KnowledgeDescription: e.Description(),
		CreatedAt:            e.CreatedAt().UTC(),
	}
}

func resultsToResponse(rs []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(rs))
	for i, r := range rs {
		items[i] = SearchResultItem{
			Entry:          entryToResponse(r.Entry()),
			RelevanceScore: r.Score(),
			MatchType:      string(r.MatchType()),
		}
	}
	return items
}

func guidanceToResponse(gs []checklistuc.Guidance) []GuidanceResponse {
	out := make([]GuidanceResponse, len(gs))
	for i, g := range gs {
		out[i] = GuidanceResponse{
			Diagnosis:            g.Diagnosis,
			RecommendedSpecialty: g.RecommendedSpecialty,
			Facility:             g.Facility,
			Provider:             g.Provider,
			Guidance:             g.Guidance,
			Confidence:           g.Confidence,
			Source:               g.Source,
		}
	}
	return out
}

func checklistToResponse(res checklistuc.Result) ChecklistResponse {
	reqs := make([]RequirementResponse, len(res.Requirements))
	for i, r := range res.Requirements {
		reqs[i] = RequirementResponse{
			Type:             string(r.Type),
			Description:      r.Description,
			Source:           r.Source,
			Priority:         string(r.Priority),
			FullEntryID:      r.EntryID,
			IsContinuityCare: r.ContinuityCare,
		}
	}
	prefs := make([]PreferenceResponse, len(res.Preferences))
	for i, p := range res.Preferences {
		prefs[i] = PreferenceResponse{Preference: p.Preference, Provider: p.Provider, Source: p.Source}
	}

	out := ChecklistResponse{
		Specialty:           res.Specialty,
		Provider:            optional(res.Provider),
		Facility:            optional(res.Facility),
		Diagnosis:           optional(res.Diagnosis),
		Requirements:        reqs,
		ProviderPreferences: prefs,
		TotalRequirements:   res.TotalRequirements(),
		TotalPreferences:    res.TotalPreferences(),
	}
	if res.Diagnosis != "" {
		out.DiagnosisGuidance = guidanceToResponse(res.Guidance)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
