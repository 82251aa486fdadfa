// Package timeutil anchors wall-clock minute arithmetic to calendar dates
// in the single business timezone. All slot math runs on minutes from
// midnight; conversion to absolute timestamps happens only here.
package timeutil

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// At places a minute-of-day on the given date in loc.
func At(date time.Time, minuteOfDay int, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, loc)
}

// MinuteOfDay returns minutes elapsed since the day's midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DayBounds returns the half-open [start, end) interval covering the
// calendar day of date in loc.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = date.Location()
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Weekday returns the day of week as 0=Sunday .. 6=Saturday, matching the
// keying of the recurring schedule.
func Weekday(date time.Time) int {
	return int(date.Weekday())
}

// SameDate reports whether a and b fall on the same calendar day. Both
// are expected to already be in the business timezone.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
