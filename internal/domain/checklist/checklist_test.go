package checklist

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
)

func strPtr(s string) *string { return &s }

func mkEntry(id string, typ knowledge.Type, provider *string, desc string) knowledge.Entry {
	return knowledge.Reconstruct(knowledge.Params{
		ID:          id,
		AuthorName:  "Sarah J.",
		Facility:    "Main Campus",
		Specialty:   "Cardiology",
		Provider:    provider,
		Type:        typ,
		Description: desc,
		Status:      knowledge.StatusPublished,
		CreatedAt:   time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		desc     string
		wantType RequirementType
		wantPrio Priority
	}{
		{"BNP levels must be within 48 hours", RequirementLab, PriorityRequired},
		{"Patient should be NPO after midnight", RequirementPatientPrep, PriorityRecommended},
		{"Bring prior MRI on CD", RequirementImaging, PriorityRecommended},
		{"Referral is always required from PCP", RequirementAuthorization, PriorityRequired},
		{"Arrive 15 minutes early", RequirementGeneral, PriorityRecommended},
		{"Recent labs and an ultrasound", RequirementLab, PriorityRecommended},
	}
	for _, tt := range tests {
		kind, prio := Classify(tt.desc)
		if kind != tt.wantType || prio != tt.wantPrio {
			t.Errorf("Classify(%q) = (%q, %q), want (%q, %q)", tt.desc, kind, prio, tt.wantType, tt.wantPrio)
		}
	}
}

func TestBuild(t *testing.T) {
	smith := strPtr("Dr. Smith")
	jones := strPtr("Dr. Jones")
	entries := []knowledge.Entry{
		mkEntry("r1", knowledge.TypePreVisitRequirement, smith, "EKG required within 30 days"),
		mkEntry("r2", knowledge.TypePreVisitRequirement, nil, "Insurance pre-auth for stress tests"),
		mkEntry("r3", knowledge.TypePreVisitRequirement, jones, "Fasting labs for Dr. Jones"),
		mkEntry("c1", knowledge.TypeContinuityCare, nil, "Keep returning heart failure patients with their cardiologist"),
		mkEntry("p1", knowledge.TypeProviderPreference, smith, "Prefers afternoon slots"),
		mkEntry("p2", knowledge.TypeProviderPreference, nil, "Clinic reviews charts in the morning"),
		mkEntry("d1", knowledge.TypeDiagnosisSpecialty, nil, "Chest pain goes to cardiology"),
	}

	c := Build("Cardiology", "smith", "", entries)

	if c.TotalRequirements() != 3 {
		t.Fatalf("expected 3 requirements, got %d: %+v", c.TotalRequirements(), c.Requirements)
	}
	if c.Requirements[0].EntryID != "r1" || c.Requirements[0].Type != RequirementLab || c.Requirements[0].Priority != PriorityRequired {
		t.Errorf("unexpected first requirement: %+v", c.Requirements[0])
	}
	if c.Requirements[1].Type != RequirementAuthorization {
		t.Errorf("expected authorization, got %q", c.Requirements[1].Type)
	}
	cont := c.Requirements[2]
	if cont.Type != RequirementContinuity || !cont.ContinuityCare || cont.Priority != PriorityRecommended {
		t.Errorf("unexpected continuity requirement: %+v", cont)
	}
	if cont.Source != "Sarah J., 03/15/2024" {
		t.Errorf("unexpected source %q", cont.Source)
	}

	if c.TotalPreferences() != 2 {
		t.Fatalf("expected 2 preferences, got %d", c.TotalPreferences())
	}
	if c.Preferences[0].Provider != "Dr. Smith" || c.Preferences[1].Provider != "General" {
		t.Errorf("unexpected preference providers: %+v", c.Preferences)
	}
}

func TestBuild_NoProviderIncludesAll(t *testing.T) {
	entries := []knowledge.Entry{
		mkEntry("r1", knowledge.TypePreVisitRequirement, strPtr("Dr. A"), "labs"),
		mkEntry("r2", knowledge.TypePreVisitRequirement, strPtr("Dr. B"), "labs"),
	}
	c := Build("Cardiology", "", "", entries)
	if c.TotalRequirements() != 2 {
		t.Errorf("expected 2 requirements, got %d", c.TotalRequirements())
	}
}

func TestBuild_Empty(t *testing.T) {
	c := Build("Dermatology", "", "", nil)
	if c.Requirements == nil || c.Preferences == nil {
		t.Error("expected non-nil empty slices")
	}
	if c.TotalRequirements() != 0 || c.TotalPreferences() != 0 {
		t.Error("expected empty checklist")
	}
}

func TestBuild_Truncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	entries := []knowledge.Entry{
		mkEntry("r1", knowledge.TypePreVisitRequirement, nil, long),
		mkEntry("c1", knowledge.TypeContinuityCare, nil, long),
		mkEntry("p1", knowledge.TypeProviderPreference, nil, long),
	}
	c := Build("Cardiology", "", "", entries)
	if n := len(c.Requirements[0].Description); n != MaxRequirementLength {
		t.Errorf("requirement length = %d", n)
	}
	if n := len(c.Requirements[1].Description); n != MaxNoteLength {
		t.Errorf("continuity length = %d", n)
	}
	if n := len(c.Preferences[0].Preference); n != MaxNoteLength {
		t.Errorf("preference length = %d", n)
	}
}

func TestTruncate_Runes(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("ok", 10); got != "ok" {
		t.Errorf("Truncate = %q", got)
	}
}
