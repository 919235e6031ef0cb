package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/registration"
	"github.com/tea-network/teanet/rsvp"
	"github.com/tea-network/teanet/users"
)

type Env int

const (
	LOCAL Env = iota
	PROD
)

type DB interface {
	events.Repository
	registration.Repository
	users.Repository
	rsvp.Repository
}

type API struct {
	db               DB
	logger           *slog.Logger
	env              Env
	googleIdVerifier AuthValidator
	googleAudience   string
	checkoutManager  registration.CheckoutManager
	notifier         registration.Notifier
	limits           registration.Limits
	checkoutReturnURL string
}

func NewAPI(
	db DB,
	logger *slog.Logger,
	env Env,
	googleIdVerifier AuthValidator,
	googleAudience string,
	checkoutManager registration.CheckoutManager,
	notifier registration.Notifier,
	limits registration.Limits,
	checkoutReturnURL string,
) *API {
	return &API{
		db:                db,
		logger:            logger,
		env:               env,
		googleIdVerifier:  googleIdVerifier,
		googleAudience:    googleAudience,
		checkoutManager:   checkoutManager,
		notifier:          notifier,
		limits:            limits,
		checkoutReturnURL: checkoutReturnURL,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(a.requestIdMiddleware())
	r.Use(a.loggingMiddleware())
	r.Use(a.corsMiddleware())
	r.Use(a.authMiddleware())

	r.Get("/health", a.getHealth)

	r.Post("/login/google", a.postGoogleLogin)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", a.getEvents)
		r.Post("/", a.postEvent)
		r.Get("/{eventId}", a.getEvent)
		r.Put("/{eventId}", a.putEvent)
		r.Post("/{eventId}/register", a.postRegister)
		r.Get("/{eventId}/registrations", a.getEventRegistrations)
		r.Put("/{eventId}/rsvp", a.putRSVP)
	})

	r.Delete("/registrations/{registrationId}", a.deleteRegistration)
	r.Post("/registrations/redeem", a.postRedeem)

	r.Post("/webhooks/stripe", a.postStripeWebhook)

	return r
}

func (a *API) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
