package triage

import "time"

// Knowledge types.
const (
	TypeDiagnosisSpecialty  = "diagnosis_specialty"
	TypeProviderPreference  = "provider_preference"
	TypeContinuityCare      = "continuity_care"
	TypePreVisitRequirement = "pre_visit_requirement"
	TypeSchedulingWorkflow  = "scheduling_workflow"
	TypeGeneralKnowledge    = "general_knowledge"
)

// Search modes reported in SearchResult.Mode.
const (
	ModeSemantic        = "semantic"
	ModeKeyword         = "keyword"
	ModeKeywordFallback = "keyword_fallback"
)

// Autocomplete fields accepted by Suggest.
const (
	FieldProvider  = "provider"
	FieldSpecialty = "specialty"
	FieldFacility  = "facility"
)

// Entry is a piece of scheduling knowledge.
// On Insert an empty ID is derived from the content, an empty Type means
// general_knowledge and an empty Status means published.
type Entry struct {
	ID             string
	AuthorName     string
	Facility       string
	Specialty      string
	Provider       string
	Type           string
	ContinuityCare bool
	Description    string
	Status         string
	CreatedAt      time.Time
}

// Filters narrow a search. Text filters are case-insensitive substrings.
type Filters struct {
	Facility       string
	Specialty      string
	Provider       string
	KnowledgeType  string
	ContinuityOnly *bool
}

// SearchRequest describes a search. Zero TopK means 10;
// nil MinSimilarity means the client default.
type SearchRequest struct {
	Query         string
	Filters       Filters
	TopK          int
	MinSimilarity *float64
}

// Hit is a single search result.
type Hit struct {
	Entry     Entry
	Score     float64
	MatchType string // "semantic" or "keyword"
}

// SearchResult holds ranked hits and the mode that produced them.
type SearchResult struct {
	Hits []Hit
	Mode string
	// EmbeddingTokens counts provider tokens spent on this search.
	EmbeddingTokens int
}

// Requirement is a pre-visit item.
type Requirement struct {
	Type           string
	Description    string
	Source         string
	Priority       string
	EntryID        string
	ContinuityCare bool
}

// Preference is a provider habit.
type Preference struct {
	Preference string
	Provider   string
	Source     string
}

// Guidance maps a diagnosis to where it should be booked.
type Guidance struct {
	Diagnosis            string
	RecommendedSpecialty string
	Facility             string
	Provider             string
	Guidance             string
	Confidence           float64
	Source               string
}

// ChecklistRequest selects the checklist to build. Diagnosis is optional.
type ChecklistRequest struct {
	Specialty string
	Provider  string
	Facility  string
	Diagnosis string
}

// Checklist is the pre-appointment summary for a specialty.
type Checklist struct {
	Specialty    string
	Provider     string
	Facility     string
	Requirements []Requirement
	Preferences  []Preference
	Guidance     []Guidance
	// Mode is set when diagnosis guidance was looked up.
	Mode string
}
