package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/registration"
)

// Notifier delivers registration notifications to recipients with a linked
// chat. Recipients without one are someone else's problem, usually the
// email notifier's.
type Notifier struct {
	sender messageSender
	logger *slog.Logger
}

var _ registration.Notifier = &Notifier{}

func NewNotifier(bot *Bot, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender: bot.sender,
		logger: logger,
	}
}

func (n *Notifier) Notify(ctx context.Context, kind registration.NotificationKind, event events.Event, recipients []registration.Contact) {
	text := notificationText(kind, event)
	if text == "" {
		n.logger.Warn("No telegram text for notification kind", slog.String("kind", string(kind)))
		return
	}

	for _, recipient := range recipients {
		if recipient.TelegramChatID == nil {
			continue
		}

		_, err := n.sender.Send(tgbotapi.NewMessage(*recipient.TelegramChatID, text))
		if err != nil {
			n.logger.Error("Failed to send telegram notification",
				slog.Int64("chat-id", *recipient.TelegramChatID),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func notificationText(kind registration.NotificationKind, event events.Event) string {
	when := event.StartTime.Format("Monday, 2 January at 15:04")

	switch kind {
	case registration.NOTIFICATION_TICKET_ISSUED:
		return fmt.Sprintf("Your ticket for %q is ready. See you at %s, %s on %s!",
			event.Name, event.Venue, event.City, when)
	case registration.NOTIFICATION_EVENT_CONFIRMED:
		return fmt.Sprintf("%q reached its minimum attendance and is happening! %s, %s on %s.",
			event.Name, event.Venue, event.City, when)
	default:
		return ""
	}
}
