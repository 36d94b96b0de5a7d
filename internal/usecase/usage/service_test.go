package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/triage/internal/domain/usage"
)

// --- Mocks ---

// fakeBudget derives remaining from limit and used the way the tracker does.
type fakeBudget struct {
	day, month int64 // limits
	dayUsed    int64
	monthUsed  int64
}

func left(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func (f fakeBudget) DailyLimit() int64       { return f.day }
func (f fakeBudget) MonthlyLimit() int64     { return f.month }
func (f fakeBudget) DailyUsed() int64        { return f.dayUsed }
func (f fakeBudget) MonthlyUsed() int64      { return f.monthUsed }
func (f fakeBudget) RemainingDaily() int64   { return left(f.day, f.dayUsed) }
func (f fakeBudget) RemainingMonthly() int64 { return left(f.month, f.monthUsed) }

var clock = time.Date(2024, 12, 31, 17, 30, 0, 0, time.UTC)

func newService(br BudgetReader) *Service {
	s := New(br)
	s.now = func() time.Time { return clock }
	return s
}

func ms(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

// --- Tests ---

func TestGetReport(t *testing.T) {
	budget := fakeBudget{day: 10000, month: 100000, dayUsed: 3000, monthUsed: 100000}

	tests := []struct {
		name       string
		period     domusage.Period
		wantPeriod domusage.Period
		start, end int64
		used       int64
		limit      int64
		remaining  int64
		exhausted  bool
	}{
		{"day", domusage.PeriodDay, domusage.PeriodDay, ms(2024, 12, 31), ms(2025, 1, 1), 3000, 10000, 7000, false},
		{"month crosses year", domusage.PeriodMonth, domusage.PeriodMonth, ms(2024, 12, 1), ms(2025, 1, 1), 100000, 100000, 0, true},
		{"unknown is day", domusage.Period("total"), domusage.PeriodDay, ms(2024, 12, 31), ms(2025, 1, 1), 3000, 10000, 7000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newService(budget).GetReport(context.Background(), tt.period)
			if r.Period() != tt.wantPeriod {
				t.Errorf("period = %q, want %q", r.Period(), tt.wantPeriod)
			}
			if r.PeriodStart() != tt.start || r.PeriodEnd() != tt.end {
				t.Errorf("bounds = [%d, %d), want [%d, %d)", r.PeriodStart(), r.PeriodEnd(), tt.start, tt.end)
			}
			if r.TokensUsed() != tt.used || r.TokensLimit() != tt.limit || r.TokensRemaining() != tt.remaining {
				t.Errorf("used/limit/remaining = %d/%d/%d, want %d/%d/%d",
					r.TokensUsed(), r.TokensLimit(), r.TokensRemaining(), tt.used, tt.limit, tt.remaining)
			}
			if r.IsExhausted() != tt.exhausted {
				t.Errorf("exhausted = %v, want %v", r.IsExhausted(), tt.exhausted)
			}
		})
	}
}

func TestGetReport_NoBudget(t *testing.T) {
	r := newService(nil).GetReport(context.Background(), domusage.PeriodMonth)
	if r.TokensLimit() != 0 || r.TokensUsed() != 0 || r.TokensRemaining() != -1 {
		t.Errorf("used/limit/remaining = %d/%d/%d, want 0/0/-1", r.TokensUsed(), r.TokensLimit(), r.TokensRemaining())
	}
	if r.IsExhausted() {
		t.Error("unlimited budget must not be exhausted")
	}
}

func TestGetReport_UnlimitedWindow(t *testing.T) {
	r := newService(fakeBudget{month: 500, dayUsed: 40}).GetReport(context.Background(), domusage.PeriodDay)
	if r.TokensRemaining() != -1 || r.IsExhausted() {
		t.Errorf("remaining = %d exhausted = %v", r.TokensRemaining(), r.IsExhausted())
	}
}
