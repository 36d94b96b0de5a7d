package checklist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/triage/internal/domain"
	domchecklist "github.com/kailas-cloud/triage/internal/domain/checklist"
	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/mode"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	"github.com/kailas-cloud/triage/internal/domain/search/result"
	"github.com/kailas-cloud/triage/internal/usecase/search"
)

// --- Mocks ---

type mockRepo struct {
	entries []knowledge.Entry
	err     error
	last    query.Query
	calls   int
}

func (m *mockRepo) FindPublished(_ context.Context, q query.Query) ([]knowledge.Entry, error) {
	m.calls++
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	var out []knowledge.Entry
	for _, e := range m.entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockSearcher struct {
	resp search.Response
	err  error
	last request.Request
}

func (m *mockSearcher) Semantic(_ context.Context, req request.Request) (search.Response, error) {
	m.last = req
	return m.resp, m.err
}

func mkEntry(id, specialty string, typ knowledge.Type, provider *string, desc string) knowledge.Entry {
	return knowledge.Reconstruct(knowledge.Params{
		ID:          id,
		AuthorName:  "Michael C.",
		Facility:    "Main Campus",
		Specialty:   specialty,
		Provider:    provider,
		Type:        typ,
		Description: desc,
		Status:      knowledge.StatusPublished,
		CreatedAt:   time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	})
}

// --- Tests ---

func TestChecklist_BuildsFromSpecialty(t *testing.T) {
	smith := "Dr. Smith"
	repo := &mockRepo{entries: []knowledge.Entry{
		mkEntry("1", "Cardiology", knowledge.TypePreVisitRequirement, nil, "NPO after midnight is required"),
		mkEntry("2", "Cardiology", knowledge.TypeProviderPreference, &smith, "Afternoon slots for complex cases"),
		mkEntry("3", "Dermatology", knowledge.TypePreVisitRequirement, nil, "Photos of lesion"),
	}}
	svc := New(repo, &mockSearcher{}, 0.5)

	res, err := svc.Checklist(context.Background(), " cardio ", "Smith", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Specialty != "cardio" {
		t.Errorf("expected trimmed specialty, got %q", res.Specialty)
	}
	if res.TotalRequirements() != 1 || res.Requirements[0].Type != domchecklist.RequirementPatientPrep {
		t.Errorf("unexpected requirements: %+v", res.Requirements)
	}
	if res.Requirements[0].Priority != domchecklist.PriorityRequired {
		t.Errorf("expected required priority, got %q", res.Requirements[0].Priority)
	}
	if res.TotalPreferences() != 1 {
		t.Errorf("expected 1 preference, got %d", res.TotalPreferences())
	}
	if res.Guidance != nil {
		t.Error("no diagnosis, no guidance")
	}
	if repo.last.Filters.Specialty() != "cardio" {
		t.Errorf("specialty filter not passed: %q", repo.last.Filters.Specialty())
	}
}

func TestChecklist_RequiresSpecialty(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockSearcher{}, 0.5)
	_, err := svc.Checklist(context.Background(), "  ", "", "", "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("store must not be called on invalid input")
	}
}

func TestChecklist_StoreError(t *testing.T) {
	storeErr := errors.New("timeout")
	svc := New(&mockRepo{err: storeErr}, &mockSearcher{}, 0.5)
	if _, err := svc.Checklist(context.Background(), "GI", "", "", ""); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestChecklist_AttachesDiagnosisGuidance(t *testing.T) {
	guide := mkEntry("g", "Gastroenterology", knowledge.TypeDiagnosisSpecialty, nil, "Crohn's goes to GI")
	searcher := &mockSearcher{resp: search.Response{
		Results: []result.Result{result.New(guide, 0.82)},
		Mode:    mode.Semantic,
	}}
	svc := New(&mockRepo{}, searcher, 0.5)

	res, err := svc.Checklist(context.Background(), "Gastro", "", "", "Crohn's")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Guidance) != 1 || res.Diagnosis != "Crohn's" || res.Mode != mode.Semantic {
		t.Fatalf("unexpected guidance: %+v", res)
	}
	if searcher.last.TopK() != checklistGuidanceLimit {
		t.Errorf("expected top_k %d, got %d", checklistGuidanceLimit, searcher.last.TopK())
	}
}

func TestByDiagnosis(t *testing.T) {
	guide := mkEntry("g", "Gastroenterology", knowledge.TypeDiagnosisSpecialty, nil, "Crohn's goes to GI")
	searcher := &mockSearcher{resp: search.Response{
		Results: []result.Result{result.NewKeyword(guide)},
		Mode:    mode.KeywordFallback,
	}}
	svc := New(&mockRepo{}, searcher, 0.6)

	got, m, err := svc.ByDiagnosis(context.Background(), "crohn's", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != mode.KeywordFallback {
		t.Errorf("expected fallback mode, got %q", m)
	}
	if searcher.last.Filters().KnowledgeType() != knowledge.TypeDiagnosisSpecialty {
		t.Errorf("expected diagnosis_specialty filter, got %q", searcher.last.Filters().KnowledgeType())
	}
	if searcher.last.MinSimilarity() != 0.6 {
		t.Errorf("expected configured threshold, got %v", searcher.last.MinSimilarity())
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 guidance, got %d", len(got))
	}
	g := got[0]
	if g.RecommendedSpecialty != "Gastroenterology" || g.Confidence != 0.5 || g.Diagnosis != "crohn's" {
		t.Errorf("unexpected guidance %+v", g)
	}
	if !strings.HasSuffix(g.Source, "02/20/2024") {
		t.Errorf("unexpected source %q", g.Source)
	}
}

func TestByDiagnosis_Validation(t *testing.T) {
	svc := New(&mockRepo{}, &mockSearcher{}, 0.5)
	for _, tc := range []struct {
		diagnosis string
		limit     int
	}{
		{"x", 5},
		{"  a ", 5},
		{"flu", 0},
		{"flu", MaxDiagnosisLimit + 1},
	} {
		if _, _, err := svc.ByDiagnosis(context.Background(), tc.diagnosis, tc.limit); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("ByDiagnosis(%q, %d): expected ErrInvalidRequest, got %v", tc.diagnosis, tc.limit, err)
		}
	}
}

func TestByDiagnosis_SearchError(t *testing.T) {
	boom := errors.New("db")
	svc := New(&mockRepo{}, &mockSearcher{err: boom}, 0.5)
	if _, _, err := svc.ByDiagnosis(context.Background(), "flu", 5); !errors.Is(err, boom) {
		t.Fatalf("expected search error, got %v", err)
	}
}
