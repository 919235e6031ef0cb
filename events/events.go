package events

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Event is a schedulable activity with capacity bounds and an optional
// price. MaxAttendees of nil means the event is uncapped. IsConfirmed is
// monotonic: once the registered count first reaches MinAttendees it flips
// true and never reverts.
type Event struct {
	ID           uuid.UUID
	Version      int
	Name         string
	City         string
	Venue        string
	StartTime    time.Time
	Tags         []string
	MinAttendees int
	MaxAttendees *int
	Price        *money.Money
	IsConfirmed  bool
	GroupEvent   bool
	CreatedAt    time.Time
}

// IsFree reports whether registrations for the event skip the payment gate.
func (e Event) IsFree() bool {
	return e.Price == nil || e.Price.IsZero()
}

// Uncapped reports whether the event has no capacity ceiling.
func (e Event) Uncapped() bool {
	return e.MaxAttendees == nil
}

type GetEventsResponse struct {
	Data        []Event
	HasNextPage bool
}

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	GetEvents(ctx context.Context, limit int32, offset int32) (GetEventsResponse, error)
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
}
