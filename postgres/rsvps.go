package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tea-network/teanet/rsvp"
)

var _ rsvp.Repository = &DB{}

func (d *DB) GetRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (rsvp.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var r rsvp.RSVP
	err := d.pool.QueryRow(ctx,
		`SELECT id, event_id, user_id, created_at FROM rsvps
		 WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&r.ID, &r.EventID, &r.UserID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rsvp.RSVP{}, rsvp.NewRSVPDoesNotExistError(
				fmt.Sprintf("No RSVP by user %q for event %q", userID, eventID), nil)
		}
		return rsvp.RSVP{}, rsvp.NewFailedToFetchError("Failed to fetch RSVP", err)
	}

	return r, nil
}

func (d *DB) CreateRSVP(ctx context.Context, r rsvp.RSVP) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx,
		`INSERT INTO rsvps (id, event_id, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		r.ID, r.EventID, r.UserID, r.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "rsvps_event_user_key") {
			return rsvp.NewRSVPAlreadyExistsError(
				fmt.Sprintf("User %q already RSVPed to event %q", r.UserID, r.EventID), err)
		}
		return rsvp.NewFailedToWriteError("Failed to insert RSVP", err)
	}

	return nil
}

func (d *DB) DeleteRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	tag, err := d.pool.Exec(ctx,
		`DELETE FROM rsvps WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return rsvp.NewFailedToWriteError("Failed to delete RSVP", err)
	}
	if tag.RowsAffected() == 0 {
		return rsvp.NewRSVPDoesNotExistError(
			fmt.Sprintf("No RSVP by user %q for event %q", userID, eventID), nil)
	}

	return nil
}

func (d *DB) ListRSVPsForEvent(ctx context.Context, eventID uuid.UUID) ([]rsvp.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx,
		`SELECT id, event_id, user_id, created_at FROM rsvps
		 WHERE event_id = $1
		 ORDER BY created_at, id`,
		eventID,
	)
	if err != nil {
		return nil, rsvp.NewFailedToFetchError("Failed to list RSVPs for event", err)
	}
	defer rows.Close()

	var out []rsvp.RSVP
	for rows.Next() {
		var r rsvp.RSVP
		if err := rows.Scan(&r.ID, &r.EventID, &r.UserID, &r.CreatedAt); err != nil {
			return nil, rsvp.NewFailedToFetchError("Failed to scan RSVP row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, rsvp.NewFailedToFetchError("Failed to read RSVP rows", err)
	}

	return out, nil
}
