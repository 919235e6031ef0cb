package rsvp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RSVP is a non-binding interest marker. It carries no payment and no
// capacity accounting, and unlike a Registration it may be freely created
// and deleted by its owner.
type RSVP struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

type Repository interface {
	GetRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (RSVP, error)
	CreateRSVP(ctx context.Context, r RSVP) error
	DeleteRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error
	ListRSVPsForEvent(ctx context.Context, eventID uuid.UUID) ([]RSVP, error)
}
