package memory

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func entry(id, specialty, facility, provider, desc string, age int, status knowledge.Status) knowledge.Entry {
	var p *string
	if provider != "" {
		p = &provider
	}
	return knowledge.Reconstruct(knowledge.Params{
		ID:          id,
		AuthorName:  "Maria Lopez",
		Facility:    facility,
		Specialty:   specialty,
		Provider:    p,
		Type:        knowledge.TypeGeneralKnowledge,
		Description: desc,
		Status:      status,
		CreatedAt:   base.Add(-time.Duration(age) * time.Hour),
	})
}

func fixtures() []knowledge.Entry {
	return []knowledge.Entry{
		entry("a", "Cardiology", "North Clinic", "Dr. Patel", "Bring EKG results", 3, knowledge.StatusPublished),
		entry("b", "Cardiac Surgery", "South Campus", "", "NPO after midnight", 1, knowledge.StatusPublished),
		entry("c", "Cardiology", "North Clinic", "Dr. Kim", "Draft note", 0, knowledge.StatusDraft),
		entry("d", "Gastroenterology", "North Clinic", "Dr. Card", "Crohn's flare goes to GI", 1, knowledge.StatusPublished),
	}
}

func ids(entries []knowledge.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID()
	}
	return out
}

func TestFindPublished_NaturalOrder(t *testing.T) {
	r := New(fixtures()...)

	got, err := r.FindPublished(context.Background(), query.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// b and d share created_at; id breaks the tie. c is a draft.
	if want := []string{"b", "d", "a"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

func TestFindPublished_FiltersTextAndLimit(t *testing.T) {
	r := New(fixtures()...)

	f, err := filter.New(filter.Params{Facility: "north"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.FindPublished(context.Background(), query.Query{Filters: f, Text: "crohn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"d"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}

	got, _ = r.FindPublished(context.Background(), query.Query{Limit: 1})
	if len(got) != 1 || got[0].ID() != "b" {
		t.Errorf("limited ids = %v, want [b]", ids(got))
	}
}

func TestFindPublished_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(fixtures()...).FindPublished(ctx, query.Query{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestInsert_Upserts(t *testing.T) {
	r := New(fixtures()...)
	updated := entry("a", "Cardiology", "North Clinic", "Dr. Patel", "Bring EKG and BNP", 3, knowledge.StatusPublished)

	if err := r.Insert(context.Background(), []knowledge.Entry{updated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 4 {
		t.Errorf("Len = %d, want 4", r.Len())
	}
	got, _ := r.FindPublished(context.Background(), query.Query{Text: "BNP"})
	if len(got) != 1 || got[0].ID() != "a" {
		t.Errorf("expected updated entry a, got %v", ids(got))
	}
}

func TestSuggest(t *testing.T) {
	r := New(fixtures()...)
	ctx := context.Background()

	got, err := r.Suggest(ctx, field.Specialty, "card", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Cardiac Surgery", "Cardiology"}; !reflect.DeepEqual(got, want) {
		t.Errorf("specialties = %v, want %v", got, want)
	}

	// Dr. Kim is only on a draft; b has no provider.
	got, _ = r.Suggest(ctx, field.Provider, "dr", 10)
	if want := []string{"Dr. Card", "Dr. Patel"}; !reflect.DeepEqual(got, want) {
		t.Errorf("providers = %v, want %v", got, want)
	}

	got, _ = r.Suggest(ctx, field.Facility, "o", 1)
	if want := []string{"North Clinic"}; !reflect.DeepEqual(got, want) {
		t.Errorf("facilities = %v, want %v", got, want)
	}
}
