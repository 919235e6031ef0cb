package rsvp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Toggle flips the user's interest marker for the event: absent becomes
// present and vice versa. Returns whether an RSVP exists after the call.
// A concurrent duplicate create is folded into "already present".
func Toggle(ctx context.Context, eventID uuid.UUID, userID uuid.UUID, repo Repository) (bool, error) {
	_, err := repo.GetRSVP(ctx, eventID, userID)
	if err == nil {
		err = repo.DeleteRSVP(ctx, eventID, userID)
		if err != nil {
			return false, err
		}
		return false, nil
	}

	var rsvpErr *Error
	if !errors.As(err, &rsvpErr) || rsvpErr.Reason != REASON_RSVP_DOES_NOT_EXIST {
		return false, err
	}

	err = repo.CreateRSVP(ctx, RSVP{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if errors.As(err, &rsvpErr) && rsvpErr.Reason == REASON_RSVP_ALREADY_EXISTS {
			return true, nil
		}
		return false, err
	}

	return true, nil
}
