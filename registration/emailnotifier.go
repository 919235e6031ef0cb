package registration

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/tea-network/teanet/events"
)

//go:embed templates
var templates embed.FS

var _ Notifier = &EmailNotifier{}

// EmailNotifier renders and sends the transactional emails for the two
// notification kinds. Delivery failures are logged per recipient and never
// propagate; a registration stays valid with or without its email.
type EmailNotifier struct {
	sender      email.Sender
	fromAddress string
	logger      *slog.Logger
}

func NewEmailNotifier(sender email.Sender, fromAddress string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:      sender,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, kind NotificationKind, event events.Event, recipients []Contact) {
	subject, htmlBody, textBody, err := renderEmail(kind, event)
	if err != nil {
		n.logger.Error("Failed to render notification email",
			slog.String("kind", string(kind)),
			slog.String("event", event.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, recipient := range recipients {
		if recipient.Email == "" {
			continue
		}

		err = n.sender.SendEmail(ctx, email.Email{
			FromAddress: n.fromAddress,
			ToAddresses: []string{recipient.Email},
			Subject:     subject,
			HTMLBody:    htmlBody,
			TextBody:    textBody,
		})
		if err != nil {
			n.logger.Error("Failed to send notification email",
				slog.String("kind", string(kind)),
				slog.String("to", recipient.Email),
				slog.String("error", err.Error()),
			)
		}
	}
}

func renderEmail(kind NotificationKind, event events.Event) (subject, htmlBody, textBody string, err error) {
	switch kind {
	case NOTIFICATION_TICKET_ISSUED:
		subject = fmt.Sprintf("Your ticket for %q", event.Name)
		htmlBody, err = renderTemplate("ticket-issued.tmpl", event)
		if err != nil {
			return "", "", "", err
		}
		textBody, err = renderTemplate("ticket-issued-textonly.tmpl", event)
	case NOTIFICATION_EVENT_CONFIRMED:
		subject = fmt.Sprintf("%q is confirmed!", event.Name)
		htmlBody, err = renderTemplate("event-confirmed.tmpl", event)
		if err != nil {
			return "", "", "", err
		}
		textBody, err = renderTemplate("event-confirmed-textonly.tmpl", event)
	default:
		return "", "", "", fmt.Errorf("unknown notification kind: %s", kind)
	}
	if err != nil {
		return "", "", "", err
	}

	return subject, htmlBody, textBody, nil
}

func renderTemplate(name string, event events.Event) (string, error) {
	tmpl, err := template.New(name).ParseFS(templates, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Event": event,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute email template %s: %w", name, err)
	}

	return buf.String(), nil
}
