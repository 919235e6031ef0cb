// Package telegram is the chat front door. It exposes the same
// registration core as the web API through bot commands, and doubles as a
// notification channel for users who linked their chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/registration"
	"github.com/tea-network/teanet/rsvp"
	"github.com/tea-network/teanet/users"
)

type DB interface {
	events.Repository
	registration.Repository
	users.Repository
	rsvp.Repository
}

// messageSender is the slice of tgbotapi.BotAPI the bot needs, split out so
// command handling can be tested without a live bot token.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   messageSender
	db       DB
	notifier registration.Notifier
	logger   *slog.Logger
	limits   registration.Limits
}

func NewBot(token string, db DB, notifier registration.Notifier, logger *slog.Logger, limits registration.Limits) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Bot{
		api:      api,
		sender:   api,
		db:       db,
		notifier: notifier,
		logger:   logger,
		limits:   limits,
	}, nil
}

// SetNotifier wires the fan-out channel used by registrations made through
// the bot. Set before Run; the bot and the notifier are mutually dependent
// at startup.
func (b *Bot) SetNotifier(n registration.Notifier) {
	b.notifier = n
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("Telegram bot polling", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID
	command := update.Message.Command()
	args := strings.TrimSpace(update.Message.CommandArguments())

	var reply string
	switch command {
	case "start", "link":
		reply = b.linkAccount(ctx, chatID, args)
	case "events":
		reply = b.listEvents(ctx)
	case "register":
		reply = b.register(ctx, chatID, args)
	case "cancel":
		reply = b.cancel(ctx, chatID, args)
	case "rsvp":
		reply = b.toggleRSVP(ctx, chatID, args)
	case "help":
		reply = helpText
	default:
		reply = "Unknown command. Try /help."
	}

	msg := tgbotapi.NewMessage(chatID, reply)
	_, err := b.sender.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send telegram reply",
			slog.Int64("chat-id", chatID),
			slog.String("command", command),
			slog.String("error", err.Error()),
		)
	}
}

const helpText = `Commands:
/link <email> - link this chat to your account
/events - upcoming events
/register <event-id> - grab a ticket
/cancel <registration-id> - give a ticket back
/rsvp <event-id> - toggle your interest`

func (b *Bot) linkAccount(ctx context.Context, chatID int64, email string) string {
	if email == "" {
		return "Pass the email of your account, like /link you@example.com"
	}

	user, err := b.db.GetUserByEmail(ctx, email)
	if err != nil {
		var userErr *users.Error
		if !errors.As(err, &userErr) || userErr.Reason != users.REASON_USER_DOES_NOT_EXIST {
			b.logger.Error("Failed to fetch user for linking", slog.String("error", err.Error()))
			return "Something went wrong, try again later."
		}

		user = users.User{
			ID:             uuid.New(),
			Email:          email,
			TelegramChatID: &chatID,
			Role:           users.ROLE_USER,
			CreatedAt:      time.Now(),
		}
		err = b.db.CreateUser(ctx, user)
		if err != nil {
			b.logger.Error("Failed to create user for linking", slog.String("error", err.Error()))
			return "Something went wrong, try again later."
		}
		return fmt.Sprintf("Welcome! This chat is now linked to %s.", email)
	}

	user.TelegramChatID = &chatID
	err = b.db.UpdateUser(ctx, user)
	if err != nil {
		b.logger.Error("Failed to link chat to user", slog.String("error", err.Error()))
		return "Something went wrong, try again later."
	}

	return fmt.Sprintf("This chat is now linked to %s.", email)
}

func (b *Bot) listEvents(ctx context.Context) string {
	result, err := b.db.GetEvents(ctx, 10, 0)
	if err != nil {
		b.logger.Error("Failed to list events for bot", slog.String("error", err.Error()))
		return "Something went wrong, try again later."
	}
	if len(result.Data) == 0 {
		return "No upcoming events."
	}

	var sb strings.Builder
	sb.WriteString("Upcoming events:\n")
	for _, event := range result.Data {
		sb.WriteString(formatEventLine(event))
	}
	sb.WriteString("\nRegister with /register <event-id>")
	return sb.String()
}

func formatEventLine(event events.Event) string {
	confirmed := "needs more people"
	if event.IsConfirmed {
		confirmed = "confirmed"
	}

	price := "free"
	if !event.IsFree() {
		price = event.Price.Display()
	}

	return fmt.Sprintf("- %s, %s (%s, %s)\n  id: %s\n",
		event.Name,
		event.StartTime.Format("Mon 2 Jan 15:04"),
		price,
		confirmed,
		event.ID,
	)
}

func (b *Bot) register(ctx context.Context, chatID int64, arg string) string {
	user, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return "Link your account first with /link <email>."
	}

	eventID, err := uuid.Parse(arg)
	if err != nil {
		return "Pass an event id, like /register <event-id>. Find ids with /events."
	}

	result, err := registration.Reserve(ctx, registration.ReserveRequest{
		EventID:  eventID,
		Holder:   registration.Holder{UserID: &user.ID, Email: user.Email, TelegramChatID: user.TelegramChatID},
		Quantity: 1,
	}, b.db, b.db, b.notifier, b.limits)
	if err != nil {
		return registrationErrorReply(err)
	}

	reg := result.Registrations[0]
	reply := fmt.Sprintf("You're in! Ticket code: %s\nRegistration id: %s", reg.TicketCode, reg.ID)
	if result.EventConfirmed {
		reply += "\nThe event just reached its minimum and is confirmed."
	}
	return reply
}

func (b *Bot) cancel(ctx context.Context, chatID int64, arg string) string {
	user, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return "Link your account first with /link <email>."
	}

	regID, err := uuid.Parse(arg)
	if err != nil {
		return "Pass your registration id, like /cancel <registration-id>."
	}

	_, err = registration.Cancel(ctx, regID, user.ID, user.Role, b.db)
	if err != nil {
		return registrationErrorReply(err)
	}

	return "Your registration is cancelled."
}

func (b *Bot) toggleRSVP(ctx context.Context, chatID int64, arg string) string {
	user, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return "Link your account first with /link <email>."
	}

	eventID, err := uuid.Parse(arg)
	if err != nil {
		return "Pass an event id, like /rsvp <event-id>."
	}

	attending, err := rsvp.Toggle(ctx, eventID, user.ID, b.db)
	if err != nil {
		b.logger.Error("Failed to toggle RSVP from bot", slog.String("error", err.Error()))
		return "Something went wrong, try again later."
	}

	if attending {
		return "Noted, you're interested."
	}
	return "Your interest is withdrawn."
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (users.User, bool) {
	user, err := b.db.GetUserByTelegramChatID(ctx, chatID)
	if err != nil {
		return users.User{}, false
	}
	return user, true
}

func registrationErrorReply(err error) string {
	var regErr *registration.Error
	if errors.As(err, &regErr) {
		switch regErr.Reason {
		case registration.REASON_EVENT_NOT_FOUND:
			return "No event with that id. Check /events."
		case registration.REASON_CAPACITY_EXCEEDED:
			return "That event is already full."
		case registration.REASON_PER_USER_LIMIT_EXCEEDED:
			return "You already hold the maximum tickets for that event."
		case registration.REASON_ALREADY_REGISTERED:
			return "You're already registered for that event."
		case registration.REASON_PAYMENT_REQUIRED:
			return "That event needs payment, please register on the website."
		case registration.REASON_REGISTRATION_DOES_NOT_EXIST:
			return "No registration with that id."
		case registration.REASON_NOT_AUTHORIZED:
			return "That registration is not yours to cancel."
		}
	}
	return "Something went wrong, try again later."
}
