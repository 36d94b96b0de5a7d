package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SearchParams are the query parameters of the search endpoints.
type SearchParams struct {
	Q                  string
	Facility           *string
	Specialty          *string
	Provider           *string
	KnowledgeType      *string
	ContinuityCareOnly *bool
	TopK               *int
}

// AutocompleteParams are the parameters of GET /knowledge/autocomplete/{field}.
type AutocompleteParams struct {
	Field string
	Q     string
	Limit *int
}

// ChecklistParams are the query parameters of GET /knowledge/checklist.
type ChecklistParams struct {
	Specialty string
	Provider  *string
	Facility  *string
	Diagnosis *string
}

// DiagnosisParams are the query parameters of GET /knowledge/checklist/by-diagnosis.
type DiagnosisParams struct {
	Diagnosis string
	Limit     *int
}

// UsageParams are the query parameters of GET /usage.
type UsageParams struct {
	Period *string
}

type queryBinding struct {
	name     string
	required bool
	dest     any
}

// bindQuery binds form-style query parameters the same way generated
// oapi-codegen handlers do.
func bindQuery(r *http.Request, bindings ...queryBinding) error {
	q := r.URL.Query()
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, q, b.dest); err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return nil
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	err := bindQuery(r,
		queryBinding{"q", true, &p.Q},
		queryBinding{"facility", false, &p.Facility},
		queryBinding{"specialty", false, &p.Specialty},
		queryBinding{"provider", false, &p.Provider},
		queryBinding{"knowledge_type", false, &p.KnowledgeType},
		queryBinding{"continuity_care_only", false, &p.ContinuityCareOnly},
		queryBinding{"top_k", false, &p.TopK},
	)
	return p, err
}

func bindAutocompleteParams(r *http.Request) (AutocompleteParams, error) {
	var p AutocompleteParams
	err := runtime.BindStyledParameterWithOptions("simple", "field", chi.URLParam(r, "field"), &p.Field,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return p, fmt.Errorf("invalid format for parameter field: %w", err)
	}
	err = bindQuery(r,
		queryBinding{"q", true, &p.Q},
		queryBinding{"limit", false, &p.Limit},
	)
	return p, err
}

func bindChecklistParams(r *http.Request) (ChecklistParams, error) {
	var p ChecklistParams
	err := bindQuery(r,
		queryBinding{"specialty", true, &p.Specialty},
		queryBinding{"provider", false, &p.Provider},
		queryBinding{"facility", false, &p.Facility},
		queryBinding{"diagnosis", false, &p.Diagnosis},
	)
	return p, err
}

func bindDiagnosisParams(r *http.Request) (DiagnosisParams, error) {
	var p DiagnosisParams
	err := bindQuery(r,
		queryBinding{"diagnosis", true, &p.Diagnosis},
		queryBinding{"limit", false, &p.Limit},
	)
	return p, err
}

func bindUsageParams(r *http.Request) (UsageParams, error) {
	var p UsageParams
	err := bindQuery(r, queryBinding{"period", false, &p.Period})
	return p, err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
