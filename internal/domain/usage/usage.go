package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("invalid period %q (expected day or month)", s)
}

// Report is an embedding token usage report for a time period.
type Report struct {
	period          Period
	periodStart     int64
	periodEnd       int64
	tokensUsed      int64
	tokensLimit     int64
	tokensRemaining int64
}

// NewReport creates a usage report. A zero limit means unlimited.
func NewReport(period Period, start, end, used, limit, remaining int64) Report {
	return Report{
		period:          period,
		periodStart:     start,
		periodEnd:       end,
		tokensUsed:      used,
		tokensLimit:     limit,
		tokensRemaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis), which is also when the budget resets.
func (r Report) PeriodEnd() int64 { return r.periodEnd }

// TokensUsed returns tokens consumed in the period.
func (r Report) TokensUsed() int64 { return r.tokensUsed }

// TokensLimit returns the token cap, 0 when unlimited.
func (r Report) TokensLimit() int64 { return r.tokensLimit }

// TokensRemaining returns tokens left in the period.
func (r Report) TokensRemaining() int64 { return r.tokensRemaining }

// IsExhausted reports whether a limited budget is spent.
// Once exhausted, semantic search runs in keyword mode until the period ends.
func (r Report) IsExhausted() bool { return r.tokensLimit > 0 && r.tokensRemaining <= 0 }
