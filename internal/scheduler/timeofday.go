// Package scheduler applies per-group open/close schedule entries on a
// fixed wall-clock tick. Entries fire at most once: a fired entry stays
// fired until it is removed or replaced.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses "HH:MM" (24h, minutes zero-padded) into minutes
// since midnight. A single-digit hour is accepted.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time of day: expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time of day: hour out of range in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day: minute out of range in %q", s)
	}
	return hour*60 + minute, nil
}

// FormatTimeOfDay renders minutes since midnight as zero-padded "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// minuteOfDay returns t's wall-clock minutes since midnight in t's location.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
