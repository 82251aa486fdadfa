package notify

import (
	"io"
	"testing"
	"time"

	"zapis/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingBot struct {
	sent []tgbotapi.Chattable
}

func (b *capturingBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func TestOwnerNotifier(t *testing.T) {
	bot := &capturingBot{}
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()

	notifier := NewOwnerNotifier(bot, 42, &logger)
	notifier.Subscribe(bus)

	payload := events.AppointmentEventPayload{
		AppointmentID: 7,
		ClientName:    "Иван",
		Phone:         "+79001234567",
		ServiceName:   "Стрижка",
		StartsAt:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:        "scheduled",
	}
	require.NoError(t, bus.PublishJSON(events.EventAppointmentBooked, payload))

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Новая запись")
	assert.Contains(t, msg.Text, "Стрижка")
	assert.Contains(t, msg.Text, "02.06.2025")
	assert.Contains(t, msg.Text, "10:00")
	assert.Contains(t, msg.Text, "Иван")

	// Отмена тоже уходит владельцу
	require.NoError(t, bus.PublishJSON(events.EventAppointmentCancelled, payload))
	require.Len(t, bot.sent, 2)
}
