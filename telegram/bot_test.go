package telegram

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/ptr"
	"github.com/tea-network/teanet/registration"
	"github.com/tea-network/teanet/rsvp"
	"github.com/tea-network/teanet/users"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, m.err
}

func (m *mockSender) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	msg, ok := m.sent[len(m.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	return msg.Text
}

var _ DB = &mockDB{}

type mockDB struct {
	GetEventsFunc               func(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error)
	GetEventFunc                func(ctx context.Context, id uuid.UUID) (events.Event, error)
	CreateRegistrationsFunc     func(ctx context.Context, regs []registration.Registration, event events.Event) error
	GetRegistrationFunc         func(ctx context.Context, id uuid.UUID) (registration.Registration, error)
	UpdateRegistrationFunc      func(ctx context.Context, reg registration.Registration) error
	CountRegisteredFunc         func(ctx context.Context, eventID uuid.UUID) (registration.Counts, error)
	SeatsForHolderFunc          func(ctx context.Context, eventID uuid.UUID, holder registration.Holder) ([]int, error)
	GetUserByEmailFunc          func(ctx context.Context, email string) (users.User, error)
	GetUserByTelegramChatIDFunc func(ctx context.Context, chatID int64) (users.User, error)
	CreateUserFunc              func(ctx context.Context, user users.User) error
	UpdateUserFunc              func(ctx context.Context, user users.User) error
	GetRSVPFunc                 func(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (rsvp.RSVP, error)
	CreateRSVPFunc              func(ctx context.Context, r rsvp.RSVP) error
	DeleteRSVPFunc              func(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error
}

func (m *mockDB) GetEvents(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error) {
	return m.GetEventsFunc(ctx, limit, offset)
}

func (m *mockDB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	return m.GetEventFunc(ctx, id)
}

func (m *mockDB) CreateEvent(ctx context.Context, event events.Event) error { return nil }

func (m *mockDB) UpdateEvent(ctx context.Context, event events.Event) error { return nil }

func (m *mockDB) CreateRegistrations(ctx context.Context, regs []registration.Registration, event events.Event) error {
	return m.CreateRegistrationsFunc(ctx, regs, event)
}

func (m *mockDB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	return m.GetRegistrationFunc(ctx, id)
}

func (m *mockDB) GetRegistrationByTicketCode(ctx context.Context, code string) (registration.Registration, error) {
	return registration.Registration{}, nil
}

func (m *mockDB) GetRegistrationsByPaymentRef(ctx context.Context, paymentRef string) ([]registration.Registration, error) {
	return nil, nil
}

func (m *mockDB) GetAllRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, limit int32, offset int32) (registration.GetAllRegistrationsResponse, error) {
	return registration.GetAllRegistrationsResponse{}, nil
}

func (m *mockDB) UpdateRegistration(ctx context.Context, reg registration.Registration) error {
	if m.UpdateRegistrationFunc != nil {
		return m.UpdateRegistrationFunc(ctx, reg)
	}
	return nil
}

func (m *mockDB) CountRegistered(ctx context.Context, eventID uuid.UUID) (registration.Counts, error) {
	if m.CountRegisteredFunc != nil {
		return m.CountRegisteredFunc(ctx, eventID)
	}
	return registration.Counts{}, nil
}

func (m *mockDB) SeatsForHolder(ctx context.Context, eventID uuid.UUID, holder registration.Holder) ([]int, error) {
	if m.SeatsForHolderFunc != nil {
		return m.SeatsForHolderFunc(ctx, eventID, holder)
	}
	return nil, nil
}

func (m *mockDB) ListContactsForEvent(ctx context.Context, eventID uuid.UUID) ([]registration.Contact, error) {
	return nil, nil
}

func (m *mockDB) VoidExpiredPrebooks(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (m *mockDB) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	return users.User{}, nil
}

func (m *mockDB) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}

func (m *mockDB) GetUserByTelegramChatID(ctx context.Context, chatID int64) (users.User, error) {
	return m.GetUserByTelegramChatIDFunc(ctx, chatID)
}

func (m *mockDB) CreateUser(ctx context.Context, user users.User) error {
	return m.CreateUserFunc(ctx, user)
}

func (m *mockDB) UpdateUser(ctx context.Context, user users.User) error {
	return m.UpdateUserFunc(ctx, user)
}

func (m *mockDB) GetRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (rsvp.RSVP, error) {
	return m.GetRSVPFunc(ctx, eventID, userID)
}

func (m *mockDB) CreateRSVP(ctx context.Context, r rsvp.RSVP) error {
	return m.CreateRSVPFunc(ctx, r)
}

func (m *mockDB) DeleteRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error {
	return m.DeleteRSVPFunc(ctx, eventID, userID)
}

func (m *mockDB) ListRSVPsForEvent(ctx context.Context, eventID uuid.UUID) ([]rsvp.RSVP, error) {
	return nil, nil
}

func newTestBot(db DB, sender *mockSender) *Bot {
	return &Bot{
		sender:   sender,
		db:       db,
		notifier: nil,
		logger:   noopLogger,
		limits:   registration.DefaultLimits(),
	}
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	commandLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		commandLen = i
	}

	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: commandLen},
			},
		},
	}
}

func TestHandleUpdateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("links an existing account", func(t *testing.T) {
		var updated users.User
		db := &mockDB{
			GetUserByEmailFunc: func(ctx context.Context, email string) (users.User, error) {
				return users.User{ID: uuid.New(), Email: email, Role: users.ROLE_USER}, nil
			},
			UpdateUserFunc: func(ctx context.Context, user users.User) error {
				updated = user
				return nil
			},
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(77, "/link alice@example.com"))

		require.NotNil(t, updated.TelegramChatID)
		assert.Equal(t, int64(77), *updated.TelegramChatID)
		assert.Contains(t, sender.lastText(t), "linked to alice@example.com")
	})

	t.Run("creates an account on first contact", func(t *testing.T) {
		var created users.User
		db := &mockDB{
			GetUserByEmailFunc: func(ctx context.Context, email string) (users.User, error) {
				return users.User{}, users.NewUserDoesNotExistError("new", nil)
			},
			CreateUserFunc: func(ctx context.Context, user users.User) error {
				created = user
				return nil
			},
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(5, "/link new@example.com"))

		assert.Equal(t, "new@example.com", created.Email)
		require.NotNil(t, created.TelegramChatID)
		assert.Equal(t, int64(5), *created.TelegramChatID)
		assert.Contains(t, sender.lastText(t), "Welcome")
	})

	t.Run("link without an email", func(t *testing.T) {
		sender := &mockSender{}

		newTestBot(&mockDB{}, sender).handleUpdate(ctx, commandUpdate(5, "/link"))

		assert.Contains(t, sender.lastText(t), "Pass the email")
	})
}

func TestHandleUpdateRegister(t *testing.T) {
	ctx := context.Background()
	eventId := uuid.New()
	userId := uuid.New()

	linkedDB := func() *mockDB {
		return &mockDB{
			GetUserByTelegramChatIDFunc: func(ctx context.Context, chatID int64) (users.User, error) {
				return users.User{ID: userId, Email: "linked@example.com", TelegramChatID: ptr.Int64(chatID), Role: users.ROLE_USER}, nil
			},
			GetEventFunc: func(ctx context.Context, id uuid.UUID) (events.Event, error) {
				return events.Event{ID: eventId, Version: 1, Name: "Tea Swap", MinAttendees: 2, MaxAttendees: ptr.Int(10)}, nil
			},
			CreateRegistrationsFunc: func(ctx context.Context, regs []registration.Registration, event events.Event) error {
				return nil
			},
		}
	}

	t.Run("registers a linked user", func(t *testing.T) {
		sender := &mockSender{}

		newTestBot(linkedDB(), sender).handleUpdate(ctx, commandUpdate(9, "/register "+eventId.String()))

		assert.Contains(t, sender.lastText(t), "Ticket code:")
	})

	t.Run("unlinked chats get pointed to /link", func(t *testing.T) {
		db := linkedDB()
		db.GetUserByTelegramChatIDFunc = func(ctx context.Context, chatID int64) (users.User, error) {
			return users.User{}, users.NewUserDoesNotExistError("not linked", nil)
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(9, "/register "+eventId.String()))

		assert.Contains(t, sender.lastText(t), "/link")
	})

	t.Run("full event", func(t *testing.T) {
		db := linkedDB()
		db.CountRegisteredFunc = func(ctx context.Context, eventID uuid.UUID) (registration.Counts, error) {
			return registration.Counts{Total: 10}, nil
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(9, "/register "+eventId.String()))

		assert.Contains(t, sender.lastText(t), "full")
	})

	t.Run("paid events are redirected to the website", func(t *testing.T) {
		db := linkedDB()
		db.GetEventFunc = func(ctx context.Context, id uuid.UUID) (events.Event, error) {
			return events.Event{ID: eventId, Version: 1, Name: "Gala", Price: money.New(5000, "EUR")}, nil
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(9, "/register "+eventId.String()))

		assert.Contains(t, sender.lastText(t), "website")
	})
}

func TestHandleUpdateEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("lists events with ids", func(t *testing.T) {
		eventId := uuid.New()
		db := &mockDB{
			GetEventsFunc: func(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error) {
				return events.GetEventsResponse{
					Data: []events.Event{{
						ID:        eventId,
						Name:      "Morning Brew",
						StartTime: time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
					}},
				}, nil
			},
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(1, "/events"))

		text := sender.lastText(t)
		assert.Contains(t, text, "Morning Brew")
		assert.Contains(t, text, eventId.String())
		assert.Contains(t, text, "free")
	})

	t.Run("no events", func(t *testing.T) {
		db := &mockDB{
			GetEventsFunc: func(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error) {
				return events.GetEventsResponse{}, nil
			},
		}
		sender := &mockSender{}

		newTestBot(db, sender).handleUpdate(ctx, commandUpdate(1, "/events"))

		assert.Contains(t, sender.lastText(t), "No upcoming events")
	})
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	event := events.Event{Name: "Tea Swap", City: "Berlin", Venue: "c-base", StartTime: time.Now()}

	t.Run("only linked recipients get a message", func(t *testing.T) {
		sender := &mockSender{}
		n := &Notifier{sender: sender, logger: noopLogger}

		n.Notify(ctx, registration.NOTIFICATION_EVENT_CONFIRMED, event, []registration.Contact{
			{Email: "no-chat@example.com"},
			{Email: "chat@example.com", TelegramChatID: ptr.Int64(12)},
		})

		require.Len(t, sender.sent, 1)
		msg := sender.sent[0].(tgbotapi.MessageConfig)
		assert.Equal(t, int64(12), msg.ChatID)
		assert.Contains(t, msg.Text, "is happening")
	})
}
