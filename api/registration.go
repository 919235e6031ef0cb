package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tea-network/teanet/registration"
	"github.com/tea-network/teanet/rsvp"
	"github.com/tea-network/teanet/slices"
	"github.com/tea-network/teanet/users"
)

type Registration struct {
	Id                  uuid.UUID `json:"id"`
	EventId             uuid.UUID `json:"eventId"`
	Email               string    `json:"email,omitempty"`
	Stage               string    `json:"stage"`
	HasPaid             bool      `json:"hasPaid"`
	HasArrived          bool      `json:"hasArrived"`
	BasicPerkApplied    bool      `json:"basicPerkApplied"`
	AdvancedPerkApplied bool      `json:"advancedPerkApplied"`
	TicketCode          string    `json:"ticketCode,omitempty"`
	Voided              bool      `json:"voided"`
	RegisteredAt        time.Time `json:"registeredAt"`
}

type registerRequest struct {
	Email    string `json:"email,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

type registerResponse struct {
	Registrations  []Registration `json:"registrations"`
	EventConfirmed bool           `json:"eventConfirmed"`
	ClientSecret   string         `json:"clientSecret,omitempty"`
}

func (a *API) postRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	eventId, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event ID must be a UUID")
		return
	}

	var body registerRequest
	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, EmptyBody, "Must specify a body")
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	holder := registration.Holder{Email: body.Email}
	if user, ok := getUserFromCtx(ctx); ok {
		holder.UserID = &user.ID
		holder.TelegramChatID = user.TelegramChatID
		if holder.Email == "" {
			holder.Email = user.Email
		}
	}

	result, err := registration.RegisterWithPayment(ctx, registration.ReserveRequest{
		EventID:  eventId,
		Holder:   holder,
		Quantity: body.Quantity,
	}, a.db, a.db, a.checkoutManager, a.notifier, a.checkoutReturnURL, a.limits)
	if err != nil {
		logger.Error("Error trying to register", "error", err)
		writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Registrations: slices.Map(result.Registrations, func(v registration.Registration) Registration {
			return registrationToApiRegistration(v, true)
		}),
		EventConfirmed: result.EventConfirmed,
		ClientSecret:   result.ClientSecret,
	})
}

type getRegistrationsResponse struct {
	Data        []Registration `json:"data"`
	HasNextPage bool           `json:"hasNextPage"`
}

func (a *API) getEventRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}
	if !users.CanManageEvents(user.Role) {
		writeError(w, http.StatusForbidden, Forbidden, "Only organizers can list registrations")
		return
	}

	eventId, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event ID must be a UUID")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		userLimit, err := strconv.Atoi(v)
		if err != nil || userLimit < 1 || userLimit > 50 {
			writeError(w, http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
			return
		}
		limit = userLimit
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		userOffset, err := strconv.Atoi(v)
		if err != nil || userOffset < 0 {
			writeError(w, http.StatusBadRequest, InvalidBody, "Offset must be non-negative")
			return
		}
		offset = userOffset
	}

	result, err := a.db.GetAllRegistrationsForEvent(ctx, eventId, int32(limit), int32(offset))
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to get registrations for event", "error", err, "eventId", eventId)

		writeError(w, http.StatusInternalServerError, InternalError, "Failed to get registrations")
		return
	}

	writeJSON(w, http.StatusOK, getRegistrationsResponse{
		Data: slices.Map(result.Data, func(v registration.Registration) Registration {
			return registrationToApiRegistration(v, true)
		}),
		HasNextPage: result.HasNextPage,
	})
}

func (a *API) deleteRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}

	registrationId, err := uuid.Parse(chi.URLParam(r, "registrationId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Registration ID must be a UUID")
		return
	}

	reg, err := registration.Cancel(ctx, registrationId, user.ID, user.Role, a.db)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Error trying to cancel registration", "error", err)
		writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registrationToApiRegistration(reg, false))
}

type redeemRequest struct {
	TicketCode string `json:"ticketCode"`
	Action     string `json:"action"`
}

type redeemResponse struct {
	Registration   Registration `json:"registration"`
	AlreadyApplied bool         `json:"alreadyApplied"`
}

func (a *API) postRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}

	var body redeemRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.TicketCode == "" {
		writeError(w, http.StatusBadRequest, InvalidBody, "Must pass a ticketCode and an action")
		return
	}

	action := registration.RedeemAction(body.Action)
	switch action {
	case registration.ACTION_ARRIVE, registration.ACTION_BASIC_PERK, registration.ACTION_ADVANCED_PERK:
	default:
		writeError(w, http.StatusBadRequest, InvalidBody, "Action must be ARRIVE, BASIC_PERK or ADVANCED_PERK")
		return
	}

	result, err := registration.Redeem(ctx, body.TicketCode, action, user.Role, a.db)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Error trying to redeem ticket", "error", err)
		writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		Registration:   registrationToApiRegistration(result.Registration, false),
		AlreadyApplied: result.AlreadyApplied,
	})
}

type rsvpResponse struct {
	Attending bool `json:"attending"`
}

func (a *API) putRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}

	eventId, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event ID must be a UUID")
		return
	}

	attending, err := rsvp.Toggle(ctx, eventId, user.ID, a.db)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Error toggling RSVP", "error", err)

		writeError(w, http.StatusInternalServerError, InternalError, "Failed to toggle RSVP")
		return
	}

	writeJSON(w, http.StatusOK, rsvpResponse{Attending: attending})
}

// registrationToApiRegistration converts a registration for the wire. The
// ticket code is the door credential, so it only rides along on responses
// going back to the holder.
func registrationToApiRegistration(reg registration.Registration, includeTicketCode bool) Registration {
	apiReg := Registration{
		Id:                  reg.ID,
		EventId:             reg.EventID,
		Email:               reg.Email,
		Stage:               string(reg.Stage),
		HasPaid:             reg.HasPaid,
		HasArrived:          reg.HasArrived,
		BasicPerkApplied:    reg.BasicPerkApplied,
		AdvancedPerkApplied: reg.AdvancedPerkApplied,
		Voided:              reg.Voided,
		RegisteredAt:        reg.RegisteredAt,
	}
	if includeTicketCode {
		apiReg.TicketCode = reg.TicketCode
	}
	return apiReg
}
