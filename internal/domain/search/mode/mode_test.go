package mode

import "testing"

func TestMode_IsValid(t *testing.T) {
	tests := []struct {
		mode  Mode
		valid bool
	}{
		{Semantic, true},
		{Keyword, true},
		{KeywordFallback, true},
		{"hybrid", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.mode.IsValid(); got != tt.valid {
			t.Errorf("Mode(%q).IsValid() = %v, want %v", tt.mode, got, tt.valid)
		}
	}
}
