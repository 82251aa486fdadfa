package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventAppointmentBooked, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := AppointmentEventPayload{
		AppointmentID: 7,
		ServiceName:   "Стрижка",
		StartsAt:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:        "scheduled",
	}
	require.NoError(t, bus.PublishJSON(EventAppointmentBooked, payload))

	require.NotNil(t, received)
	assert.Equal(t, 1, callCount)

	var got AppointmentEventPayload
	require.NoError(t, json.Unmarshal(received.Payload, &got))
	assert.Equal(t, int64(7), got.AppointmentID)
	assert.Equal(t, "Стрижка", got.ServiceName)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.PublishJSON(EventAppointmentPaid, map[string]int{"id": 1}))
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	var secondCalled bool
	bus.Subscribe(EventAppointmentCancelled, func(*Event) error { return errors.New("boom") })
	bus.Subscribe(EventAppointmentCancelled, func(*Event) error {
		secondCalled = true
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventAppointmentCancelled, nil))
	assert.True(t, secondCalled)
}

func TestEventBus_NilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventAppointmentBooked, nil))
}
