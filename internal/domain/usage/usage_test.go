package usage

import "testing"

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"month", PeriodMonth, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReport_Exhausted(t *testing.T) {
	r := NewReport(PeriodDay, 1, 2, 1000, 1000, 0)
	if !r.IsExhausted() {
		t.Error("expected exhausted")
	}
	unlimited := NewReport(PeriodMonth, 1, 2, 5000, 0, 0)
	if unlimited.IsExhausted() {
		t.Error("unlimited budget is never exhausted")
	}
	if unlimited.TokensUsed() != 5000 {
		t.Errorf("TokensUsed() = %d", unlimited.TokensUsed())
	}
}
