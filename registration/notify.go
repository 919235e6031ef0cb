package registration

import (
	"context"

	"github.com/tea-network/teanet/events"
)

type NotificationKind string

const (
	NOTIFICATION_TICKET_ISSUED   NotificationKind = "TICKET_ISSUED"
	NOTIFICATION_EVENT_CONFIRMED NotificationKind = "EVENT_CONFIRMED"
)

// Contact is a deliverable address for a registrant: an email, a Telegram
// chat, or both.
type Contact struct {
	Email          string
	TelegramChatID *int64
}

// Notifier is the fire-and-forget side-effect contract. Implementations
// must tolerate per-recipient delivery failure without reporting back;
// registration state never depends on a notification going out.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, event events.Event, recipients []Contact)
}

// MultiNotifier fans a notification out to several channels.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, kind NotificationKind, event events.Event, recipients []Contact) {
	for _, n := range m {
		n.Notify(ctx, kind, event, recipients)
	}
}
