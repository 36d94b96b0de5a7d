package triage

import (
	"fmt"

	"github.com/kailas-cloud/triage/internal/domain"
	domchecklist "github.com/kailas-cloud/triage/internal/domain/checklist"
	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/result"
	"github.com/kailas-cloud/triage/internal/seed"
	checklistuc "github.com/kailas-cloud/triage/internal/usecase/checklist"
)

func toDomainEntry(e Entry) (knowledge.Entry, error) {
	id := e.ID
	if id == "" {
		id = seed.StableID(e.Facility, e.Specialty, e.Provider, e.Description)
	}
	var provider *string
	if e.Provider != "" {
		p := e.Provider
		provider = &p
	}
	entry, err := knowledge.New(knowledge.Params{
		ID:          id,
		AuthorName:  e.AuthorName,
		Facility:    e.Facility,
		Specialty:   e.Specialty,
		Provider:    provider,
		Type:        knowledge.Type(e.Type),
		Continuity:  e.ContinuityCare,
		Description: e.Description,
		Status:      knowledge.Status(e.Status),
		CreatedAt:   e.CreatedAt,
	})
	if err != nil {
		return knowledge.Entry{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return entry, nil
}

func fromDomainEntry(e knowledge.Entry) Entry {
	return Entry{
		ID:             e.ID(),
		AuthorName:     e.AuthorName(),
		Facility:       e.Facility(),
		Specialty:      e.Specialty(),
		Provider:       e.ProviderName(),
		Type:           string(e.Type()),
		ContinuityCare: e.IsContinuityCare(),
		Description:    e.Description(),
		Status:         string(e.Status()),
		CreatedAt:      e.CreatedAt(),
	}
}

func toDomainFilters(f Filters) (filter.Filters, error) {
	out, err := filter.New(filter.Params{
		Facility:       f.Facility,
		Specialty:      f.Specialty,
		Provider:       f.Provider,
		KnowledgeType:  f.KnowledgeType,
		ContinuityOnly: f.ContinuityOnly,
	})
	if err != nil {
		return filter.Filters{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return out, nil
}

func fromDomainResults(rs []result.Result) []Hit {
	hits := make([]Hit, len(rs))
	for i, r := range rs {
		hits[i] = Hit{
			Entry:     fromDomainEntry(r.Entry()),
			Score:     r.Score(),
			MatchType: string(r.MatchType()),
		}
	}
	return hits
}

func fromDomainGuidance(gs []checklistuc.Guidance) []Guidance {
	out := make([]Guidance, len(gs))
	for i, g := range gs {
		var provider string
		if g.Provider != nil {
			provider = *g.Provider
		}
		out[i] = Guidance{
			Diagnosis:            g.Diagnosis,
			RecommendedSpecialty: g.RecommendedSpecialty,
			Facility:             g.Facility,
			Provider:             provider,
			Guidance:             g.Guidance,
			Confidence:           g.Confidence,
			Source:               g.Source,
		}
	}
	return out
}

func fromDomainChecklist(res checklistuc.Result) Checklist {
	c := Checklist{
		Specialty:    res.Specialty,
		Provider:     res.Provider,
		Facility:     res.Facility,
		Requirements: make([]Requirement, len(res.Requirements)),
		Preferences:  make([]Preference, len(res.Preferences)),
		Guidance:     fromDomainGuidance(res.Guidance),
		Mode:         string(res.Mode),
	}
	for i, r := range res.Requirements {
		c.Requirements[i] = fromDomainRequirement(r)
	}
	for i, p := range res.Preferences {
		c.Preferences[i] = Preference{Preference: p.Preference, Provider: p.Provider, Source: p.Source}
	}
	return c
}

func fromDomainRequirement(r domchecklist.Requirement) Requirement {
	return Requirement{
		Type:           string(r.Type),
		Description:    r.Description,
		Source:         r.Source,
		Priority:       string(r.Priority),
		EntryID:        r.EntryID,
		ContinuityCare: r.ContinuityCare,
	}
}
