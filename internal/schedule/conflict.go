package schedule

import (
	"time"

	"zapis/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether a candidate interval of durationMinutes
// starting at start collides with any non-cancelled appointment in
// existing. Linear scan: the comparison set is one day's appointments.
func HasConflict(start time.Time, durationMinutes int, existing []models.Appointment) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	for _, appt := range existing {
		if !appt.Active() {
			continue
		}
		if Overlaps(start, end, appt.StartsAt, appt.EndsAt()) {
			return true
		}
	}
	return false
}
