package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeRange is a wall-clock interval expressed as "HH:MM" strings.
// End is exclusive: a range 09:00-13:00 ends just before 13:00.
type TimeRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Minutes converts both bounds to minutes from midnight.
func (r TimeRange) Minutes() (start, end int, err error) {
	start, err = ParseClock(r.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", r.Start, err)
	}
	end, err = ParseClock(r.End)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", r.End, err)
	}
	return start, end, nil
}

// ParseClock parses "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DaySchedule is the resolved working plan for a single calendar day.
// Breaks carve non-bookable intervals out of the ranges.
type DaySchedule struct {
	Available bool        `json:"available" yaml:"available"`
	Ranges    []TimeRange `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Breaks    []TimeRange `json:"breaks,omitempty" yaml:"breaks,omitempty"`
}

// WeeklySchedule maps weekday (0=Sunday .. 6=Saturday) to the recurring plan.
type WeeklySchedule map[int]DaySchedule

// ScheduleException fully supersedes the recurring plan for one date.
// There is no merging: the exception's ranges and breaks are used verbatim.
type ScheduleException struct {
	Date string `json:"date"` // 2006-01-02
	DaySchedule
}
