package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/jackc/pgx/v5"
	"github.com/tea-network/teanet/events"

	"github.com/google/uuid"
)

var _ events.Repository = &DB{}

const eventColumns = `id, version, name, city, venue, start_time, tags,
	min_attendees, max_attendees, price_amount, price_currency,
	is_confirmed, group_event, created_at`

type eventRow struct {
	ID            uuid.UUID
	Version       int
	Name          string
	City          string
	Venue         string
	StartTime     time.Time
	Tags          []string
	MinAttendees  int
	MaxAttendees  *int
	PriceAmount   *int64
	PriceCurrency *string
	IsConfirmed   bool
	GroupEvent    bool
	CreatedAt     time.Time
}

func (r eventRow) toEvent() events.Event {
	event := events.Event{
		ID:           r.ID,
		Version:      r.Version,
		Name:         r.Name,
		City:         r.City,
		Venue:        r.Venue,
		StartTime:    r.StartTime,
		Tags:         r.Tags,
		MinAttendees: r.MinAttendees,
		MaxAttendees: r.MaxAttendees,
		IsConfirmed:  r.IsConfirmed,
		GroupEvent:   r.GroupEvent,
		CreatedAt:    r.CreatedAt,
	}
	if r.PriceAmount != nil && r.PriceCurrency != nil {
		event.Price = money.New(*r.PriceAmount, *r.PriceCurrency)
	}
	return event
}

func newEventRow(event events.Event) eventRow {
	row := eventRow{
		ID:           event.ID,
		Version:      event.Version,
		Name:         event.Name,
		City:         event.City,
		Venue:        event.Venue,
		StartTime:    event.StartTime,
		Tags:         event.Tags,
		MinAttendees: event.MinAttendees,
		MaxAttendees: event.MaxAttendees,
		IsConfirmed:  event.IsConfirmed,
		GroupEvent:   event.GroupEvent,
		CreatedAt:    event.CreatedAt,
	}
	if event.Tags == nil {
		row.Tags = []string{}
	}
	if event.Price != nil {
		amount := event.Price.Amount()
		currency := event.Price.Currency().Code
		row.PriceAmount = &amount
		row.PriceCurrency = &currency
	}
	return row
}

func scanEventRow(row pgx.Row) (eventRow, error) {
	var r eventRow
	err := row.Scan(
		&r.ID, &r.Version, &r.Name, &r.City, &r.Venue, &r.StartTime, &r.Tags,
		&r.MinAttendees, &r.MaxAttendees, &r.PriceAmount, &r.PriceCurrency,
		&r.IsConfirmed, &r.GroupEvent, &r.CreatedAt,
	)
	return r, err
}

func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	row, err := scanEventRow(d.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Event{}, events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return events.Event{}, events.NewTimeoutError("GetEvent timed out")
		}
		return events.Event{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", id), err)
	}

	return row.toEvent(), nil
}

func (d *DB) CreateEvent(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	r := newEventRow(event)
	_, err := d.pool.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.Version, r.Name, r.City, r.Venue, r.StartTime, r.Tags,
		r.MinAttendees, r.MaxAttendees, r.PriceAmount, r.PriceCurrency,
		r.IsConfirmed, r.GroupEvent, r.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "events_pkey") {
			return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("CreateEvent timed out")
		}
		return events.NewFailedToWriteError("Failed to insert event", err)
	}

	return nil
}

func (d *DB) GetEvents(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	// Fetch 1 more than limit to check if there is another page or not
	rows, err := d.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 ORDER BY start_time DESC, id
		 LIMIT $1 OFFSET $2`,
		limit+1, offset,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return events.GetEventsResponse{}, events.NewTimeoutError("GetEvents timed out")
		}
		return events.GetEventsResponse{}, events.NewFailedToFetchError("Failed to fetch events", err)
	}
	defer rows.Close()

	var data []events.Event
	for rows.Next() {
		r, err := scanEventRow(rows)
		if err != nil {
			return events.GetEventsResponse{}, events.NewFailedToFetchError("Failed to scan event row", err)
		}
		data = append(data, r.toEvent())
	}
	if err := rows.Err(); err != nil {
		return events.GetEventsResponse{}, events.NewFailedToFetchError("Failed to read event rows", err)
	}

	hasNextPage := len(data) > int(limit)
	if hasNextPage {
		data = data[:limit]
	}

	return events.GetEventsResponse{
		Data:        data,
		HasNextPage: hasNextPage,
	}, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	r := newEventRow(event)
	tag, err := d.pool.Exec(ctx,
		`UPDATE events SET version = $2, name = $3, city = $4, venue = $5,
			start_time = $6, tags = $7, min_attendees = $8, max_attendees = $9,
			price_amount = $10, price_currency = $11, is_confirmed = $12,
			group_event = $13
		 WHERE id = $1 AND version = $2 - 1`,
		r.ID, r.Version, r.Name, r.City, r.Venue, r.StartTime, r.Tags,
		r.MinAttendees, r.MaxAttendees, r.PriceAmount, r.PriceCurrency,
		r.IsConfirmed, r.GroupEvent,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("UpdateEvent timed out")
		}
		return events.NewFailedToWriteError("Failed to update event", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err = d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, event.ID).Scan(&exists)
		if err == nil && !exists {
			return events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q does not exist", event.ID), nil)
		}
		return events.NewVersionConflictError(fmt.Sprintf("Event %q was modified concurrently", event.ID), nil)
	}

	return nil
}
