package checklist

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
)

// Description length caps.
const (
	MaxRequirementLength = 300
	MaxNoteLength        = 200
)

// RequirementType is the category of a pre-visit requirement.
type RequirementType string

// Requirement types.
const (
	RequirementLab           RequirementType = "lab"
	RequirementPatientPrep   RequirementType = "patient_prep"
	RequirementImaging       RequirementType = "imaging"
	RequirementAuthorization RequirementType = "authorization"
	RequirementGeneral       RequirementType = "general"
	RequirementContinuity    RequirementType = "continuity"
)

// Priority tells the scheduler whether a requirement can be skipped.
type Priority string

// Priorities.
const (
	PriorityRequired    Priority = "required"
	PriorityRecommended Priority = "recommended"
)

// Ordered: the first matching category wins.
var classifiers = []struct {
	kind     RequirementType
	keywords []string
}{
	{RequirementLab, []string{"lab", "labs", "blood work", "bnp", "ekg", "ecg"}},
	{RequirementPatientPrep, []string{"npo", "fasting", "empty stomach", "preparation"}},
	{RequirementImaging, []string{"imaging", "x-ray", "mri", "ct scan", "ultrasound"}},
	{RequirementAuthorization, []string{"authorization", "referral", "pre-auth", "insurance"}},
}

var requiredWords = []string{"must", "required", "always", "critical", "necessary"}

// Requirement is one item the scheduler has to take care of before the visit.
type Requirement struct {
	Type           RequirementType
	Description    string
	Source         string
	Priority       Priority
	EntryID        string
	ContinuityCare bool
}

// Preference is a provider habit worth knowing when booking.
type Preference struct {
	Preference string
	Provider   string
	Source     string
}

// Checklist is the pre-appointment summary for a specialty.
type Checklist struct {
	Specialty    string
	Provider     string
	Facility     string
	Requirements []Requirement
	Preferences  []Preference
}

// TotalRequirements returns the number of requirements.
func (c Checklist) TotalRequirements() int { return len(c.Requirements) }

// TotalPreferences returns the number of provider preferences.
func (c Checklist) TotalPreferences() int { return len(c.Preferences) }

// Relevant reports whether an entry contributes to a checklist for the given provider.
// Entries without a provider are general knowledge and always apply.
func Relevant(e knowledge.Entry, provider string) bool {
	switch e.Type() {
	case knowledge.TypePreVisitRequirement, knowledge.TypeProviderPreference, knowledge.TypeContinuityCare:
	default:
		return false
	}
	if provider == "" || e.Provider() == nil {
		return true
	}
	return filter.ContainsFold(*e.Provider(), provider)
}

// Build assembles a checklist from entries already narrowed by specialty and facility.
// Entries that are not Relevant are ignored; input order is preserved.
func Build(specialty, provider, facility string, entries []knowledge.Entry) Checklist {
	c := Checklist{
		Specialty:    specialty,
		Provider:     provider,
		Facility:     facility,
		Requirements: []Requirement{},
		Preferences:  []Preference{},
	}
	for _, e := range entries {
		if !Relevant(e, provider) {
			continue
		}
		switch e.Type() {
		case knowledge.TypePreVisitRequirement:
			kind, prio := Classify(e.Description())
			c.Requirements = append(c.Requirements, Requirement{
				Type:        kind,
				Description: Truncate(e.Description(), MaxRequirementLength),
				Source:      Source(e),
				Priority:    prio,
				EntryID:     e.ID(),
			})
		case knowledge.TypeContinuityCare:
			c.Requirements = append(c.Requirements, Requirement{
				Type:           RequirementContinuity,
				Description:    Truncate(e.Description(), MaxNoteLength),
				Source:         Source(e),
				Priority:       PriorityRecommended,
				EntryID:        e.ID(),
				ContinuityCare: true,
			})
		case knowledge.TypeProviderPreference:
			name := e.ProviderName()
			if name == "" {
				name = "General"
			}
			c.Preferences = append(c.Preferences, Preference{
				Preference: Truncate(e.Description(), MaxNoteLength),
				Provider:   name,
				Source:     Source(e),
			})
		}
	}
	return c
}

// Classify derives requirement category and priority from free text by keyword.
func Classify(description string) (RequirementType, Priority) {
	text := strings.ToLower(description)
	kind := RequirementGeneral
	for _, c := range classifiers {
		if containsAny(text, c.keywords) {
			kind = c.kind
			break
		}
	}
	prio := PriorityRecommended
	if containsAny(text, requiredWords) {
		prio = PriorityRequired
	}
	return kind, prio
}

// Source formats author attribution as "Name, MM/DD/YYYY".
func Source(e knowledge.Entry) string {
	return fmt.Sprintf("%s, %s", e.AuthorName(), e.CreatedAt().Format("01/02/2006"))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
