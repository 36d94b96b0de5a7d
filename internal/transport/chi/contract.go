package chi

import (
	"context"

	"github.com/kailas-cloud/triage/internal/domain/search/mode"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	domusage "github.com/kailas-cloud/triage/internal/domain/usage"
	checklistuc "github.com/kailas-cloud/triage/internal/usecase/checklist"
	healthuc "github.com/kailas-cloud/triage/internal/usecase/health"
	searchuc "github.com/kailas-cloud/triage/internal/usecase/search"
)

// Searcher serves the knowledge search endpoints.
type Searcher interface {
	Semantic(ctx context.Context, req request.Request) (searchuc.Response, error)
	Keyword(ctx context.Context, req request.Request) (searchuc.Response, error)
	Suggest(ctx context.Context, partial, fieldName string, limit int) ([]string, error)
}

// Checklister serves the checklist endpoints.
type Checklister interface {
	Checklist(ctx context.Context, specialty, provider, facility, diagnosis string) (checklistuc.Result, error)
	ByDiagnosis(ctx context.Context, diagnosis string, limit int) ([]checklistuc.Guidance, mode.Mode, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
