package schedule

import (
	"testing"
	"time"

	"zapis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockSlots(t *testing.T, slots []int) []string {
	t.Helper()
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, models.FormatClock(s))
	}
	return out
}

func TestResolveDay_ExceptionWins(t *testing.T) {
	weekly := models.WeeklySchedule{
		1: {Available: true, Ranges: []models.TimeRange{{Start: "09:00", End: "18:00"}}},
	}
	exc := &models.ScheduleException{
		Date:        "2025-06-02",
		DaySchedule: models.DaySchedule{Available: false},
	}

	day := ResolveDay(weekly, exc, 1)
	assert.False(t, day.Available)

	day = ResolveDay(weekly, nil, 1)
	assert.True(t, day.Available)
}

func TestResolveDay_MissingWeekday(t *testing.T) {
	day := ResolveDay(models.WeeklySchedule{}, nil, 3)
	assert.False(t, day.Available)
}

func TestGenerateSlots_BreakExclusion(t *testing.T) {
	day := models.DaySchedule{
		Available: true,
		Ranges:    []models.TimeRange{{Start: "09:00", End: "13:00"}},
		Breaks:    []models.TimeRange{{Start: "11:00", End: "11:30"}},
	}

	slots := GenerateSlots(day, 30, 0)

	// 11:00 внутри перерыва, 11:30 — его конец, полуинтервал его не исключает
	assert.Equal(t,
		[]string{"09:00", "09:30", "10:00", "10:30", "11:30", "12:00", "12:30"},
		clockSlots(t, slots))
}

func TestGenerateSlots_UnalignedEndStopsShort(t *testing.T) {
	day := models.DaySchedule{
		Available: true,
		Ranges:    []models.TimeRange{{Start: "09:00", End: "10:20"}},
	}

	slots := GenerateSlots(day, 30, 0)

	// Неполный последний слот не выдается
	assert.Equal(t, []string{"09:00", "09:30"}, clockSlots(t, slots))
}

func TestGenerateSlots_Unavailable(t *testing.T) {
	day := models.DaySchedule{
		Available: false,
		Ranges:    []models.TimeRange{{Start: "09:00", End: "18:00"}},
	}

	assert.Empty(t, GenerateSlots(day, 15, 0))
}

func TestGenerateSlots_InvertedRange(t *testing.T) {
	day := models.DaySchedule{
		Available: true,
		Ranges: []models.TimeRange{
			{Start: "12:00", End: "12:00"},
			{Start: "15:00", End: "14:00"},
		},
	}

	assert.Empty(t, GenerateSlots(day, 15, 0))
}

func TestGenerateSlots_OutOfOrderRangesSorted(t *testing.T) {
	day := models.DaySchedule{
		Available: true,
		Ranges: []models.TimeRange{
			{Start: "14:00", End: "15:00"},
			{Start: "09:00", End: "10:00"},
		},
	}

	slots := GenerateSlots(day, 30, 0)
	assert.Equal(t, []string{"09:00", "09:30", "14:00", "14:30"}, clockSlots(t, slots))

	require.True(t, sortedAscending(slots))
}

func TestGenerateSlots_NotBefore(t *testing.T) {
	day := models.DaySchedule{
		Available: true,
		Ranges:    []models.TimeRange{{Start: "09:00", End: "12:00"}},
	}

	slots := GenerateSlots(day, 30, 10*60+15)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, clockSlots(t, slots))
}

func sortedAscending(slots []int) bool {
	for i := 1; i < len(slots); i++ {
		if slots[i-1] > slots[i] {
			return false
		}
	}
	return true
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"inside", at(0), at(45), at(15), at(30), true},
		{"partial", at(0), at(45), at(30), at(60), true},
		{"identical", at(0), at(30), at(0), at(30), true},
		{"touching", at(0), at(45), at(45), at(60), false},
		{"disjoint", at(0), at(30), at(60), at(90), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Симметричность предиката
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestHasConflict(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	existing := []models.Appointment{
		{StartsAt: base, DurationMinutes: 45, Status: models.StatusScheduled},
	}

	// 45-минутная запись в 10:00 закрывает слот 10:30
	assert.True(t, HasConflict(base.Add(30*time.Minute), 15, existing))
	assert.True(t, HasConflict(base.Add(-15*time.Minute), 30, existing))
	assert.False(t, HasConflict(base.Add(45*time.Minute), 30, existing))

	cancelled := []models.Appointment{
		{StartsAt: base, DurationMinutes: 45, Status: models.StatusCancelled},
	}
	assert.False(t, HasConflict(base, 45, cancelled))
}
