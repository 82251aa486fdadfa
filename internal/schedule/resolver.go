// Package schedule contains the pure availability logic: resolving the
// effective working hours for a date, generating candidate slots, and
// checking appointment overlaps. Nothing here touches storage.
package schedule

import "zapis/internal/models"

// ResolveDay returns the effective schedule for a date. An exception,
// when present, supersedes the recurring weekday entry verbatim (no
// merging). Absent configuration degrades to an unavailable day.
func ResolveDay(weekly models.WeeklySchedule, exc *models.ScheduleException, weekday int) models.DaySchedule {
	if exc != nil {
		return exc.DaySchedule
	}
	if day, ok := weekly[weekday]; ok {
		return day
	}
	return models.DaySchedule{Available: false}
}
