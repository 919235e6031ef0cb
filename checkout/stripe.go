// Package checkout implements the payment-intent boundary on Stripe
// Checkout sessions. Sessions are embedded-mode so the web client renders
// the payment form itself; settlement arrives through the signed
// checkout.session.completed webhook.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tea-network/teanet/registration"
)

type StripeManager struct {
	webhookSecret string
}

var _ registration.CheckoutManager = &StripeManager{}

func NewStripeManager(apiKey string, webhookSecret string) *StripeManager {
	stripe.Key = apiKey
	return &StripeManager{
		webhookSecret: webhookSecret,
	}
}

func (m *StripeManager) CreateCheckout(ctx context.Context, params registration.CheckoutParams) (registration.CheckoutInfo, error) {
	if params.Price == nil {
		return registration.CheckoutInfo{}, fmt.Errorf("cannot create a checkout without a price")
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		ReturnURL: stripe.String(params.ReturnURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(params.Price.Currency().Code)),
					UnitAmount: stripe.Int64(params.Price.Amount()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.EventName),
					},
				},
				Quantity: stripe.Int64(int64(params.Quantity)),
			},
		},
		Metadata: params.Metadata,
	}
	if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}

	s, err := session.New(sessionParams)
	if err != nil {
		return registration.CheckoutInfo{}, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}

	return registration.CheckoutInfo{
		SessionID:    s.ID,
		ClientSecret: s.ClientSecret,
	}, nil
}

func (m *StripeManager) ConfirmCheckout(ctx context.Context, payload []byte, signature string) (registration.CheckoutConfirmation, error) {
	event, err := webhook.ConstructEvent(payload, signature, m.webhookSecret)
	if err != nil {
		return registration.CheckoutConfirmation{}, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return registration.CheckoutConfirmation{}, fmt.Errorf("unexpected webhook event type %q", event.Type)
	}

	var s stripe.CheckoutSession
	err = json.Unmarshal(event.Data.Raw, &s)
	if err != nil {
		return registration.CheckoutConfirmation{}, fmt.Errorf("failed to unmarshal checkout session from webhook: %w", err)
	}

	return registration.CheckoutConfirmation{
		SessionID: s.ID,
		Metadata:  s.Metadata,
	}, nil
}
