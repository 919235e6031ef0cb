package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/tea-network/teanet/events"
)

// Metadata keys attached to a checkout session so the webhook can be tied
// back to the reservation it pays for.
const (
	checkoutMetadataEventID = "EVENT_ID"
	checkoutMetadataEmail   = "EMAIL"
)

type CheckoutParams struct {
	EventName string
	Price     *money.Money
	Quantity  int
	Email     string
	ReturnURL string
	Metadata  map[string]string
}

type CheckoutInfo struct {
	SessionID    string
	ClientSecret string
}

type CheckoutConfirmation struct {
	SessionID string
	Metadata  map[string]string
}

// CheckoutManager is the opaque payment-intent boundary. The core never
// talks to the payment provider beyond these two calls; settlement comes
// back asynchronously through the webhook that feeds ConfirmCheckout.
type CheckoutManager interface {
	CreateCheckout(ctx context.Context, params CheckoutParams) (CheckoutInfo, error)
	ConfirmCheckout(ctx context.Context, payload []byte, signature string) (CheckoutConfirmation, error)
}

type RegisterWithPaymentResult struct {
	ReserveResult
	ClientSecret string
}

// RegisterWithPayment reserves seats on a paid event. The checkout session
// is created first so its ID can ride on the registrations as the payment
// reference; the seats are then held in PREBOOK until the webhook confirms
// the charge or the hold TTL releases them. No ticket-issued notification
// fires here; issuance happens at MarkPaid.
func RegisterWithPayment(ctx context.Context, req ReserveRequest, eventRepo events.Repository, repo Repository, checkout CheckoutManager, notifier Notifier, returnURL string, limits Limits) (RegisterWithPaymentResult, error) {
	ctx, span := tracer.Start(ctx, "registration.RegisterWithPayment")
	defer span.End()

	// A dry run without a payment reference: full validation, no writes.
	// Free events fall through to the immediate flow.
	probe, event, err := reserveWithRetry(ctx, req, "", nil, eventRepo, repo, limits)
	if err != nil {
		return RegisterWithPaymentResult{}, err
	}
	if !probe.PaymentRequired {
		notifyAfterReserve(ctx, probe, event, req.Holder, repo, notifier)
		return RegisterWithPaymentResult{ReserveResult: probe}, nil
	}

	info, err := checkout.CreateCheckout(ctx, CheckoutParams{
		EventName: event.Name,
		Price:     event.Price,
		Quantity:  req.Quantity,
		Email:     req.Holder.Email,
		ReturnURL: returnURL,
		Metadata: map[string]string{
			checkoutMetadataEventID: req.EventID.String(),
			checkoutMetadataEmail:   req.Holder.Email,
		},
	})
	if err != nil {
		return RegisterWithPaymentResult{}, NewFailedToCreateCheckoutError("Failed to create checkout session", err)
	}

	expiresAt := time.Now().Add(limits.PaymentHoldTTL)
	result, event, err := reserveWithRetry(ctx, req, info.SessionID, &expiresAt, eventRepo, repo, limits)
	if err != nil {
		// The session is orphaned and expires on the provider's side; the
		// webhook for it would miss and be logged as an unknown reference.
		return RegisterWithPaymentResult{}, err
	}

	if result.EventConfirmed {
		notifyAfterReserve(ctx, ReserveResult{EventConfirmed: true, PaymentRequired: true}, event, req.Holder, repo, notifier)
	}

	return RegisterWithPaymentResult{
		ReserveResult: result,
		ClientSecret:  info.ClientSecret,
	}, nil
}

type MarkPaidResult struct {
	Registrations []Registration
}

// MarkPaid bridges an external payment-completion signal to the pending
// registrations holding that reference. It is idempotent: registrations
// already finalized are left untouched and re-deliveries produce neither
// a second state flip nor a second notification. An unknown reference is
// a domain outcome (REASON_PAYMENT_REF_UNKNOWN), not a failure of the store.
func MarkPaid(ctx context.Context, paymentRef string, repo Repository, eventRepo events.Repository, notifier Notifier) (MarkPaidResult, error) {
	ctx, span := tracer.Start(ctx, "registration.MarkPaid")
	defer span.End()

	regs, err := repo.GetRegistrationsByPaymentRef(ctx, paymentRef)
	if err != nil {
		return MarkPaidResult{}, err
	}
	if len(regs) == 0 {
		return MarkPaidResult{}, NewPaymentRefUnknownError(fmt.Sprintf("No registrations hold payment reference %q", paymentRef))
	}

	event, err := eventRepo.GetEvent(ctx, regs[0].EventID)
	if err != nil {
		return MarkPaidResult{}, NewFailedToFetchError(fmt.Sprintf("Failed to fetch event %q for paid registrations", regs[0].EventID), err)
	}

	out := make([]Registration, 0, len(regs))
	for _, reg := range regs {
		if reg.Voided || reg.Stage == STAGE_BOOK {
			out = append(out, reg)
			continue
		}

		reg.Stage = STAGE_BOOK
		reg.HasPaid = true
		reg.Version++
		err = repo.UpdateRegistration(ctx, reg)
		if err != nil {
			var regErr *Error
			if errors.As(err, &regErr) && regErr.Reason == REASON_STORE_CONFLICT {
				// A concurrent delivery of the same signal won the write.
				// That delivery owns the notification; skip both here.
				current, fetchErr := repo.GetRegistration(ctx, reg.ID)
				if fetchErr == nil {
					out = append(out, current)
					continue
				}
			}
			return MarkPaidResult{}, err
		}

		if notifier != nil {
			notifier.Notify(ctx, NOTIFICATION_TICKET_ISSUED, event, []Contact{{Email: reg.Email}})
		}
		out = append(out, reg)
	}

	return MarkPaidResult{Registrations: out}, nil
}

// ConfirmRegistrationPayment verifies and unpacks a provider webhook
// payload, then finalizes the registrations tied to the checkout session.
func ConfirmRegistrationPayment(ctx context.Context, payload []byte, signature string, repo Repository, eventRepo events.Repository, checkout CheckoutManager, notifier Notifier) (MarkPaidResult, error) {
	conf, err := checkout.ConfirmCheckout(ctx, payload, signature)
	if err != nil {
		return MarkPaidResult{}, NewFailedToConfirmCheckoutError("Failed to confirm checkout payload", err)
	}

	return MarkPaid(ctx, conf.SessionID, repo, eventRepo, notifier)
}
