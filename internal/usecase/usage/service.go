package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/triage/internal/domain/usage"
)

// Service reports embedding token spend against the budget.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. A nil br reports an unlimited, unused budget.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport describes the current day or month. Any period other than month is
// treated as day.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	if period != domusage.PeriodMonth {
		period = domusage.PeriodDay
	}
	start, end := bounds(period, s.now().UTC())

	used, limit, remaining := int64(0), int64(0), int64(-1)
	if s.br != nil {
		if period == domusage.PeriodMonth {
			used, limit, remaining = s.br.MonthlyUsed(), s.br.MonthlyLimit(), s.br.RemainingMonthly()
		} else {
			used, limit, remaining = s.br.DailyUsed(), s.br.DailyLimit(), s.br.RemainingDaily()
		}
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), used, limit, remaining)
}

// bounds returns the UTC calendar period containing now; end is when the budget resets.
func bounds(period domusage.Period, now time.Time) (time.Time, time.Time) {
	if period == domusage.PeriodMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
