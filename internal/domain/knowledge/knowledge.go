package knowledge

import (
	"fmt"
	"strings"
	"time"
)

// Type classifies what a knowledge entry is about.
type Type string

// Knowledge types.
const (
	TypeDiagnosisSpecialty  Type = "diagnosis_specialty"
	TypeProviderPreference  Type = "provider_preference"
	TypeContinuityCare      Type = "continuity_care"
	TypePreVisitRequirement Type = "pre_visit_requirement"
	TypeSchedulingWorkflow  Type = "scheduling_workflow"
	TypeGeneralKnowledge    Type = "general_knowledge"
)

// IsValid reports whether t is a known knowledge type.
func (t Type) IsValid() bool {
	switch t {
	case TypeDiagnosisSpecialty, TypeProviderPreference, TypeContinuityCare,
		TypePreVisitRequirement, TypeSchedulingWorkflow, TypeGeneralKnowledge:
		return true
	}
	return false
}

// Status is the publication state of an entry.
type Status string

// Entry statuses. Only published entries are visible to search.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Field length limits.
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 10000
)

// Entry is a piece of tribal knowledge authored by a medical assistant.
type Entry struct {
	id          string
	authorName  string
	facility    string
	specialty   string
	provider    *string
	kind        Type
	continuity  bool
	description string
	status      Status
	createdAt   time.Time
}

// Params groups the fields needed to create an entry.
type Params struct {
	ID          string
	AuthorName  string
	Facility    string
	Specialty   string
	Provider    *string
	Type        Type
	Continuity  bool
	Description string
	Status      Status
	CreatedAt   time.Time
}

// New validates params and creates an Entry.
// Empty type defaults to general_knowledge, empty status to published.
func New(p Params) (Entry, error) {
	if p.ID == "" {
		return Entry{}, fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.AuthorName) == "" {
		return Entry{}, fmt.Errorf("author name is required")
	}
	if strings.TrimSpace(p.Facility) == "" {
		return Entry{}, fmt.Errorf("facility is required")
	}
	if strings.TrimSpace(p.Specialty) == "" {
		return Entry{}, fmt.Errorf("specialty is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return Entry{}, fmt.Errorf("description is required")
	}
	for name, v := range map[string]string{
		"author name": p.AuthorName,
		"facility":    p.Facility,
		"specialty":   p.Specialty,
	} {
		if len(v) > MaxNameLength {
			return Entry{}, fmt.Errorf("%s too long (max %d chars)", name, MaxNameLength)
		}
	}
	if p.Provider != nil && len(*p.Provider) > MaxNameLength {
		return Entry{}, fmt.Errorf("provider too long (max %d chars)", MaxNameLength)
	}
	if len(p.Description) > MaxDescriptionLength {
		return Entry{}, fmt.Errorf("description too long (max %d chars)", MaxDescriptionLength)
	}
	if p.Type == "" {
		p.Type = TypeGeneralKnowledge
	}
	if !p.Type.IsValid() {
		return Entry{}, fmt.Errorf("invalid knowledge type: %q", p.Type)
	}
	if p.Status == "" {
		p.Status = StatusPublished
	}
	if !p.Status.IsValid() {
		return Entry{}, fmt.Errorf("invalid status: %q", p.Status)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	// blank provider means "applies to every provider"
	if p.Provider != nil && strings.TrimSpace(*p.Provider) == "" {
		p.Provider = nil
	}
	return Reconstruct(p), nil
}

// Reconstruct restores an Entry from storage without validation.
func Reconstruct(p Params) Entry {
	return Entry{
		id:          p.ID,
		authorName:  p.AuthorName,
		facility:    p.Facility,
		specialty:   p.Specialty,
		provider:    p.Provider,
		kind:        p.Type,
		continuity:  p.Continuity,
		description: p.Description,
		status:      p.Status,
		createdAt:   p.CreatedAt,
	}
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// AuthorName returns the name of the medical assistant who wrote the entry.
func (e Entry) AuthorName() string { return e.authorName }

// Facility returns the facility name.
func (e Entry) Facility() string { return e.facility }

// Specialty returns the specialty or service.
func (e Entry) Specialty() string { return e.specialty }

// Provider returns the provider name, nil when the entry applies to any provider.
func (e Entry) Provider() *string { return e.provider }

// Type returns the knowledge type.
func (e Entry) Type() Type { return e.kind }

// IsContinuityCare reports whether the entry is about continuity of care.
func (e Entry) IsContinuityCare() bool { return e.continuity }

// Description returns the knowledge text.
func (e Entry) Description() string { return e.description }

// Status returns the publication status.
func (e Entry) Status() Status { return e.status }

// IsPublished reports whether the entry is visible to search.
func (e Entry) IsPublished() bool { return e.status == StatusPublished }

// CreatedAt returns the creation time.
func (e Entry) CreatedAt() time.Time { return e.createdAt }

// ProviderName returns the provider or an empty string.
func (e Entry) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return *e.provider
}
