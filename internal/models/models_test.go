package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{" 11:30 ", 690, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"-1:00", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "00:05", FormatClock(5))
	assert.Equal(t, "23:59", FormatClock(1439))
}

func TestTimeRangeMinutes(t *testing.T) {
	start, end, err := TimeRange{Start: "09:00", End: "13:00"}.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 540, start)
	assert.Equal(t, 780, end)

	_, _, err = TimeRange{Start: "bad", End: "13:00"}.Minutes()
	assert.Error(t, err)

	_, _, err = TimeRange{Start: "09:00", End: "25:00"}.Minutes()
	assert.Error(t, err)
}

func TestAppointmentEndsAt(t *testing.T) {
	a := Appointment{
		StartsAt:        time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	}
	assert.Equal(t, time.Date(2025, 6, 2, 10, 45, 0, 0, time.UTC), a.EndsAt())
}

func TestAppointmentActive(t *testing.T) {
	a := Appointment{Status: StatusScheduled}
	assert.True(t, a.Active())

	a.Status = StatusCancelled
	assert.False(t, a.Active())

	a.Status = StatusPaid
	assert.True(t, a.Active())
}
