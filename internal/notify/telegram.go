package notify

import (
	"encoding/json"
	"fmt"

	"zapis/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramAPI is the narrow slice of the bot API the notifier needs.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// OwnerNotifier pushes appointment events into the owner's telegram
// chat so new public bookings are visible without opening the admin UI.
type OwnerNotifier struct {
	bot         TelegramAPI
	ownerChatID int64
	logger      *zerolog.Logger
}

func NewOwnerNotifier(bot TelegramAPI, ownerChatID int64, logger *zerolog.Logger) *OwnerNotifier {
	return &OwnerNotifier{
		bot:         bot,
		ownerChatID: ownerChatID,
		logger:      logger,
	}
}

// Subscribe wires the notifier to the event bus.
func (n *OwnerNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventAppointmentBooked, n.onEvent("Новая запись"))
	bus.Subscribe(events.EventAppointmentCancelled, n.onEvent("Отмена записи"))
}

func (n *OwnerNotifier) onEvent(title string) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.AppointmentEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			n.logger.Error().Err(err).Str("event", event.Type).Msg("failed to decode event payload")
			return err
		}

		text := fmt.Sprintf("%s\n\n%s\n%s, %s\n%s",
			title,
			payload.ServiceName,
			payload.StartsAt.Format("02.01.2006"),
			payload.StartsAt.Format("15:04"),
			payload.Phone,
		)
		if payload.ClientName != "" {
			text += "\n" + payload.ClientName
		}

		if _, err := n.bot.Send(tgbotapi.NewMessage(n.ownerChatID, text)); err != nil {
			n.logger.Error().Err(err).Msg("failed to send owner notification")
			return err
		}
		return nil
	}
}
