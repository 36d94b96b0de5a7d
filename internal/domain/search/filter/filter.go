package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
)

// MaxValueLength caps a single substring filter value.
const MaxValueLength = 255

// Filters are structured constraints ANDed onto a search.
// Text filters match as case-insensitive substrings; an empty value means "no constraint".
type Filters struct {
	facility       string
	specialty      string
	provider       string
	knowledgeType  knowledge.Type
	continuityOnly *bool
}

// Params holds raw filter input.
type Params struct {
	Facility       string
	Specialty      string
	Provider       string
	KnowledgeType  string
	ContinuityOnly *bool
}

// New validates and creates Filters. Values are trimmed.
func New(p Params) (Filters, error) {
	f := Filters{
		facility:       strings.TrimSpace(p.Facility),
		specialty:      strings.TrimSpace(p.Specialty),
		provider:       strings.TrimSpace(p.Provider),
		continuityOnly: p.ContinuityOnly,
	}
	for name, v := range map[string]string{
		"facility":  f.facility,
		"specialty": f.specialty,
		"provider":  f.provider,
	} {
		if len(v) > MaxValueLength {
			return Filters{}, fmt.Errorf("%s filter too long (max %d chars)", name, MaxValueLength)
		}
	}
	if kt := strings.TrimSpace(p.KnowledgeType); kt != "" {
		t := knowledge.Type(kt)
		if !t.IsValid() {
			return Filters{}, fmt.Errorf("invalid knowledge type: %q", kt)
		}
		f.knowledgeType = t
	}
	return f, nil
}

// Facility returns the facility substring filter.
func (f Filters) Facility() string { return f.facility }

// Specialty returns the specialty substring filter.
func (f Filters) Specialty() string { return f.specialty }

// Provider returns the provider substring filter.
func (f Filters) Provider() string { return f.provider }

// KnowledgeType returns the exact knowledge type filter.
func (f Filters) KnowledgeType() knowledge.Type { return f.knowledgeType }

// ContinuityOnly returns the continuity flag filter, nil when unset.
func (f Filters) ContinuityOnly() *bool { return f.continuityOnly }

// WithKnowledgeType returns a copy constrained to one knowledge type.
func (f Filters) WithKnowledgeType(t knowledge.Type) Filters {
	f.knowledgeType = t
	return f
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return f.facility == "" && f.specialty == "" && f.provider == "" &&
		f.knowledgeType == "" && f.continuityOnly == nil
}

// Matches reports whether e satisfies every constraint.
// An entry without a provider never matches a provider filter.
func (f Filters) Matches(e knowledge.Entry) bool {
	if f.facility != "" && !ContainsFold(e.Facility(), f.facility) {
		return false
	}
	if f.specialty != "" && !ContainsFold(e.Specialty(), f.specialty) {
		return false
	}
	if f.provider != "" && (e.Provider() == nil || !ContainsFold(*e.Provider(), f.provider)) {
		return false
	}
	if f.knowledgeType != "" && e.Type() != f.knowledgeType {
		return false
	}
	if f.continuityOnly != nil && e.IsContinuityCare() != *f.continuityOnly {
		return false
	}
	return true
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
