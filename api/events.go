package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/slices"
	"github.com/tea-network/teanet/users"
)

type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Event struct {
	Id           *uuid.UUID `json:"id,omitempty"`
	Name         string     `json:"name"`
	City         string     `json:"city"`
	Venue        string     `json:"venue"`
	StartTime    time.Time  `json:"startTime"`
	Tags         []string   `json:"tags"`
	MinAttendees int        `json:"minAttendees"`
	MaxAttendees *int       `json:"maxAttendees,omitempty"`
	Price        *Price     `json:"price,omitempty"`
	IsConfirmed  bool       `json:"isConfirmed"`
	GroupEvent   bool       `json:"groupEvent"`
}

type getEventsResponse struct {
	Data        []Event `json:"data"`
	HasNextPage bool    `json:"hasNextPage"`
}

func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	result, err := a.db.GetEvents(ctx, int32(limit), int32(offset))
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to get events from the DB", "error", err)

		writeError(w, http.StatusInternalServerError, InternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, getEventsResponse{
		Data: slices.Map(result.Data, func(v events.Event) Event {
			return eventToApiEvent(v)
		}),
		HasNextPage: result.HasNextPage,
	})
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventId, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event ID must be a UUID")
		return
	}

	event, err := a.db.GetEvent(ctx, eventId)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to fetch an event", "error", err)

		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_EVENT_DOES_NOT_EXIST {
			writeError(w, http.StatusNotFound, NotFound, "Event does not exist")
			return
		}

		writeError(w, http.StatusInternalServerError, InternalError, "Failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, eventToApiEvent(event))
}

func (a *API) postEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}
	if !users.CanManageEvents(user.Role) {
		writeError(w, http.StatusForbidden, Forbidden, "Only organizers can create events")
		return
	}

	var body Event
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event must have a name")
		return
	}

	id := uuid.New()
	body.Id = &id
	body.IsConfirmed = false
	event := apiEventToEvent(body)
	event.Version = 1
	event.CreatedAt = time.Now()

	err = a.db.CreateEvent(ctx, event)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to create an event", "error", err)

		writeError(w, http.StatusInternalServerError, InternalError, "Failed to create the event")
		return
	}

	writeJSON(w, http.StatusOK, eventToApiEvent(event))
}

func (a *API) putEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := getUserFromCtx(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, AuthError, "Must be logged in")
		return
	}
	if !users.CanManageEvents(user.Role) {
		writeError(w, http.StatusForbidden, Forbidden, "Only organizers can update events")
		return
	}

	eventId, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, "Event ID must be a UUID")
		return
	}

	var body Event
	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
		return
	}

	current, err := a.db.GetEvent(ctx, eventId)
	if err != nil {
		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_EVENT_DOES_NOT_EXIST {
			writeError(w, http.StatusNotFound, NotFound, "Event does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, InternalError, "Failed to get event")
		return
	}

	body.Id = &eventId
	event := apiEventToEvent(body)
	// Confirmation is owned by the registration flow, version by the store.
	event.IsConfirmed = current.IsConfirmed
	event.CreatedAt = current.CreatedAt
	event.Version = current.Version + 1

	err = a.db.UpdateEvent(ctx, event)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to update event", "error", err)

		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_VERSION_CONFLICT {
			writeError(w, http.StatusConflict, Conflict, "Event was modified concurrently, try again")
			return
		}

		writeError(w, http.StatusInternalServerError, InternalError, "Failed to update the event")
		return
	}

	writeJSON(w, http.StatusOK, eventToApiEvent(event))
}

func eventToApiEvent(event events.Event) Event {
	apiEvent := Event{
		Id:           &event.ID,
		Name:         event.Name,
		City:         event.City,
		Venue:        event.Venue,
		StartTime:    event.StartTime,
		Tags:         event.Tags,
		MinAttendees: event.MinAttendees,
		MaxAttendees: event.MaxAttendees,
		IsConfirmed:  event.IsConfirmed,
		GroupEvent:   event.GroupEvent,
	}
	if event.Price != nil {
		apiEvent.Price = &Price{
			Amount:   event.Price.Amount(),
			Currency: event.Price.Currency().Code,
		}
	}
	return apiEvent
}

func apiEventToEvent(apiEvent Event) events.Event {
	event := events.Event{
		ID:           *apiEvent.Id,
		Name:         apiEvent.Name,
		City:         apiEvent.City,
		Venue:        apiEvent.Venue,
		StartTime:    apiEvent.StartTime,
		Tags:         apiEvent.Tags,
		MinAttendees: apiEvent.MinAttendees,
		MaxAttendees: apiEvent.MaxAttendees,
		IsConfirmed:  apiEvent.IsConfirmed,
		GroupEvent:   apiEvent.GroupEvent,
	}
	if apiEvent.Price != nil {
		event.Price = money.New(apiEvent.Price.Amount, apiEvent.Price.Currency)
	}
	return event
}
