package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tea-network/teanet/registration"
)

// postStripeWebhook finalizes registrations when the payment provider
// reports a completed checkout. Unknown payment references get a 200: the
// provider retries on anything else, and a reference we will never know
// about should not be retried forever.
func (a *API) postStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, 65536)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read stripe webhook body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	result, err := registration.ConfirmRegistrationPayment(ctx, payload, r.Header.Get("Stripe-Signature"), a.db, a.db, a.checkoutManager, a.notifier)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) && regErr.Reason == registration.REASON_PAYMENT_REF_UNKNOWN {
			logger.Warn("Webhook for an unknown payment reference", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusOK)
			return
		}

		logger.Error("Failed to confirm registration payment", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info("Confirmed registration payment", slog.Int("registrations", len(result.Registrations)))

	w.WriteHeader(http.StatusOK)
}
