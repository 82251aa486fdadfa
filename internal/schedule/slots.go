package schedule

import (
	"sort"

	"zapis/internal/models"
)

// GenerateSlots walks every working range of day in steps of
// granularityMinutes and returns candidate slot starts as minutes of
// day, chronologically ordered. A candidate at minute T is dropped if
// it falls inside a break (breakStart <= T < breakEnd) or before
// notBeforeMinute. A range end unaligned to the granularity stops
// short: no partial final slot is emitted.
func GenerateSlots(day models.DaySchedule, granularityMinutes, notBeforeMinute int) []int {
	if !day.Available || granularityMinutes <= 0 {
		return nil
	}

	var slots []int
	for _, r := range day.Ranges {
		start, err := models.ParseClock(r.Start)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(r.End)
		if err != nil {
			continue
		}
		// Пустые и перевёрнутые диапазоны не дают слотов
		if end <= start {
			continue
		}

		for t := start; t+granularityMinutes <= end; t += granularityMinutes {
			if t < notBeforeMinute {
				continue
			}
			if inBreak(day.Breaks, t) {
				continue
			}
			slots = append(slots, t)
		}
	}

	// Диапазоны могут храниться не по порядку
	sort.Ints(slots)
	return slots
}

func inBreak(breaks []models.TimeRange, minute int) bool {
	for _, b := range breaks {
		start, err := models.ParseClock(b.Start)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(b.End)
		if err != nil {
			continue
		}
		if start <= minute && minute < end {
			return true
		}
	}
	return false
}
