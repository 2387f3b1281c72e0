package scheduler

import "testing"

func TestParseTimeOfDayValid(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"7:05", 7*60 + 5},
		{"07:05", 7*60 + 5},
		{"23:59", 23*60 + 59},
		{" 12:30 ", 12*60 + 30},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	tests := []string{
		"",
		"24:00",
		"12:60",
		"12:5",
		"12",
		"ab:cd",
		"-1:00",
		"12:345",
	}
	for _, in := range tests {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Errorf("ParseTimeOfDay(%q) should fail", in)
		}
	}
}

func TestFormatTimeOfDay(t *testing.T) {
	if got := FormatTimeOfDay(7*60 + 5); got != "07:05" {
		t.Errorf("FormatTimeOfDay = %q", got)
	}
	if got := FormatTimeOfDay(0); got != "00:00" {
		t.Errorf("FormatTimeOfDay(0) = %q", got)
	}
}
