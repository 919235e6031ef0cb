package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/registration"
)

var _ registration.Repository = &DB{}

const registrationColumns = `id, version, event_id, user_id, email, stage,
	has_paid, has_arrived, basic_perk_applied, advanced_perk_applied,
	ticket_code, payment_ref, payment_expires_at, voided, seat_no,
	registered_at`

type registrationRow struct {
	ID                  uuid.UUID
	Version             int
	EventID             uuid.UUID
	UserID              *uuid.UUID
	Email               *string
	Stage               string
	HasPaid             bool
	HasArrived          bool
	BasicPerkApplied    bool
	AdvancedPerkApplied bool
	TicketCode          string
	PaymentRef          *string
	PaymentExpiresAt    *time.Time
	Voided              bool
	SeatNo              int
	RegisteredAt        time.Time
}

func (r registrationRow) toRegistration() registration.Registration {
	reg := registration.Registration{
		ID:                  r.ID,
		Version:             r.Version,
		EventID:             r.EventID,
		UserID:              r.UserID,
		Stage:               registration.Stage(r.Stage),
		HasPaid:             r.HasPaid,
		HasArrived:          r.HasArrived,
		BasicPerkApplied:    r.BasicPerkApplied,
		AdvancedPerkApplied: r.AdvancedPerkApplied,
		TicketCode:          r.TicketCode,
		PaymentExpiresAt:    r.PaymentExpiresAt,
		Voided:              r.Voided,
		SeatNo:              r.SeatNo,
		RegisteredAt:        r.RegisteredAt,
	}
	if r.Email != nil {
		reg.Email = *r.Email
	}
	if r.PaymentRef != nil {
		reg.PaymentRef = *r.PaymentRef
	}
	return reg
}

func newRegistrationRow(reg registration.Registration) registrationRow {
	row := registrationRow{
		ID:                  reg.ID,
		Version:             reg.Version,
		EventID:             reg.EventID,
		UserID:              reg.UserID,
		Stage:               string(reg.Stage),
		HasPaid:             reg.HasPaid,
		HasArrived:          reg.HasArrived,
		BasicPerkApplied:    reg.BasicPerkApplied,
		AdvancedPerkApplied: reg.AdvancedPerkApplied,
		TicketCode:          reg.TicketCode,
		PaymentExpiresAt:    reg.PaymentExpiresAt,
		Voided:              reg.Voided,
		SeatNo:              reg.SeatNo,
		RegisteredAt:        reg.RegisteredAt,
	}
	if reg.Email != "" {
		row.Email = &reg.Email
	}
	if reg.PaymentRef != "" {
		row.PaymentRef = &reg.PaymentRef
	}
	return row
}

func scanRegistrationRow(row pgx.Row) (registrationRow, error) {
	var r registrationRow
	err := row.Scan(
		&r.ID, &r.Version, &r.EventID, &r.UserID, &r.Email, &r.Stage,
		&r.HasPaid, &r.HasArrived, &r.BasicPerkApplied, &r.AdvancedPerkApplied,
		&r.TicketCode, &r.PaymentRef, &r.PaymentExpiresAt, &r.Voided, &r.SeatNo,
		&r.RegisteredAt,
	)
	return r, err
}

// CreateRegistrations inserts the registrations and applies the event's
// reservation-driven fields in one transaction. The event update is
// conditional on the stored version being exactly one behind, which makes
// two racing reservations for the same event mutually exclusive: the
// loser's capacity and confirmation decisions were computed against a
// stale read and must be redone.
func (d *DB) CreateRegistrations(ctx context.Context, regs []registration.Registration, event events.Event) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return registration.NewFailedToWriteError("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE events SET version = $2, is_confirmed = $3
		 WHERE id = $1 AND version = $2 - 1`,
		event.ID, event.Version, event.IsConfirmed,
	)
	if err != nil {
		return registration.NewFailedToWriteError("Failed to update event for reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return registration.NewStoreConflictError(fmt.Sprintf("Event %q version moved past %d", event.ID, event.Version-1), nil)
	}

	for _, reg := range regs {
		r := newRegistrationRow(reg)
		_, err = tx.Exec(ctx,
			`INSERT INTO registrations (`+registrationColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			r.ID, r.Version, r.EventID, r.UserID, r.Email, r.Stage,
			r.HasPaid, r.HasArrived, r.BasicPerkApplied, r.AdvancedPerkApplied,
			r.TicketCode, r.PaymentRef, r.PaymentExpiresAt, r.Voided, r.SeatNo,
			r.RegisteredAt,
		)
		if err != nil {
			if uniqueViolation(err, "registrations_holder_seat_key") {
				return registration.NewAlreadyRegisteredError(
					fmt.Sprintf("Holder already has seat %d for event %q", r.SeatNo, r.EventID), err)
			}
			if uniqueViolation(err, "") {
				return registration.NewStoreConflictError("Registration insert hit a unique index", err)
			}
			return registration.NewFailedToWriteError("Failed to insert registration", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return registration.NewFailedToWriteError("Failed to commit reservation", err)
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	r, err := scanRegistrationRow(d.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q not found", id), nil)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with ID %q", id), err)
	}

	return r.toRegistration(), nil
}

func (d *DB) GetRegistrationByTicketCode(ctx context.Context, code string) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	r, err := scanRegistrationRow(d.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE ticket_code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.NewTicketCodeNotFoundError("No registration holds this ticket code", nil)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistrationByTicketCode timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError("Failed to fetch registration by ticket code", err)
	}

	return r.toRegistration(), nil
}

func (d *DB) GetRegistrationsByPaymentRef(ctx context.Context, paymentRef string) ([]registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE payment_ref = $1
		 ORDER BY seat_no`,
		paymentRef,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("GetRegistrationsByPaymentRef timed out")
		}
		return nil, registration.NewFailedToFetchError("Failed to fetch registrations by payment ref", err)
	}
	defer rows.Close()

	var regs []registration.Registration
	for rows.Next() {
		r, err := scanRegistrationRow(rows)
		if err != nil {
			return nil, registration.NewFailedToFetchError("Failed to scan registration row", err)
		}
		regs = append(regs, r.toRegistration())
	}
	if err := rows.Err(); err != nil {
		return nil, registration.NewFailedToFetchError("Failed to read registration rows", err)
	}

	return regs, nil
}

func (d *DB) GetAllRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, limit int32, offset int32) (registration.GetAllRegistrationsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	// Fetch 1 more than limit to check if there is another page or not
	rows, err := d.pool.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1
		 ORDER BY registered_at, id
		 LIMIT $2 OFFSET $3`,
		eventID, limit+1, offset,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.GetAllRegistrationsResponse{}, registration.NewTimeoutError("GetAllRegistrationsForEvent timed out")
		}
		return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations for event", err)
	}
	defer rows.Close()

	var data []registration.Registration
	for rows.Next() {
		r, err := scanRegistrationRow(rows)
		if err != nil {
			return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to scan registration row", err)
		}
		data = append(data, r.toRegistration())
	}
	if err := rows.Err(); err != nil {
		return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to read registration rows", err)
	}

	hasNextPage := len(data) > int(limit)
	if hasNextPage {
		data = data[:limit]
	}

	return registration.GetAllRegistrationsResponse{
		Data:        data,
		HasNextPage: hasNextPage,
	}, nil
}

func (d *DB) UpdateRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	r := newRegistrationRow(reg)
	tag, err := d.pool.Exec(ctx,
		`UPDATE registrations SET version = $2, stage = $3, has_paid = $4,
			has_arrived = $5, basic_perk_applied = $6, advanced_perk_applied = $7,
			payment_ref = $8, payment_expires_at = $9, voided = $10
		 WHERE id = $1 AND version = $2 - 1`,
		r.ID, r.Version, r.Stage, r.HasPaid,
		r.HasArrived, r.BasicPerkApplied, r.AdvancedPerkApplied,
		r.PaymentRef, r.PaymentExpiresAt, r.Voided,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("UpdateRegistration timed out")
		}
		return registration.NewFailedToWriteError("Failed to update registration", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err = d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, reg.ID).Scan(&exists)
		if err == nil && !exists {
			return registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q does not exist", reg.ID), nil)
		}
		return registration.NewStoreConflictError(fmt.Sprintf("Registration %q was modified concurrently", reg.ID), nil)
	}

	return nil
}

func (d *DB) CountRegistered(ctx context.Context, eventID uuid.UUID) (registration.Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var counts registration.Counts
	err := d.pool.QueryRow(ctx,
		`SELECT count(*),
			count(*) FILTER (WHERE has_paid),
			count(*) FILTER (WHERE has_arrived)
		 FROM registrations
		 WHERE event_id = $1 AND NOT voided`,
		eventID,
	).Scan(&counts.Total, &counts.Paid, &counts.Arrived)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Counts{}, registration.NewTimeoutError("CountRegistered timed out")
		}
		return registration.Counts{}, registration.NewFailedToFetchError("Failed to count registrations", err)
	}

	return counts, nil
}

func (d *DB) SeatsForHolder(ctx context.Context, eventID uuid.UUID, holder registration.Holder) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx,
		`SELECT seat_no FROM registrations
		 WHERE event_id = $1 AND NOT voided
		   AND (($2::uuid IS NOT NULL AND user_id = $2)
		     OR ($2::uuid IS NULL AND user_id IS NULL AND lower(email) = lower($3)))
		 ORDER BY seat_no`,
		eventID, holder.UserID, holder.Email,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("SeatsForHolder timed out")
		}
		return nil, registration.NewFailedToFetchError("Failed to fetch holder registrations", err)
	}
	defer rows.Close()

	var seats []int
	for rows.Next() {
		var seat int
		err = rows.Scan(&seat)
		if err != nil {
			return nil, registration.NewFailedToFetchError("Failed to scan holder seat", err)
		}
		seats = append(seats, seat)
	}
	if rows.Err() != nil {
		return nil, registration.NewFailedToFetchError("Failed to fetch holder registrations", rows.Err())
	}

	return seats, nil
}

func (d *DB) ListContactsForEvent(ctx context.Context, eventID uuid.UUID) ([]registration.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx,
		`SELECT DISTINCT COALESCE(r.email, u.email, ''), u.telegram_chat_id
		 FROM registrations r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1 AND NOT r.voided`,
		eventID,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("ListContactsForEvent timed out")
		}
		return nil, registration.NewFailedToFetchError("Failed to list contacts for event", err)
	}
	defer rows.Close()

	var contacts []registration.Contact
	for rows.Next() {
		var c registration.Contact
		if err := rows.Scan(&c.Email, &c.TelegramChatID); err != nil {
			return nil, registration.NewFailedToFetchError("Failed to scan contact row", err)
		}
		if c.Email == "" && c.TelegramChatID == nil {
			continue
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, registration.NewFailedToFetchError("Failed to read contact rows", err)
	}

	return contacts, nil
}

func (d *DB) VoidExpiredPrebooks(ctx context.Context, now time.Time) (int, error) {
	tag, err := d.pool.Exec(ctx,
		`UPDATE registrations SET voided = TRUE, version = version + 1
		 WHERE stage = $1 AND NOT has_paid AND NOT voided
		   AND payment_expires_at IS NOT NULL AND payment_expires_at < $2`,
		string(registration.STAGE_PREBOOK), now,
	)
	if err != nil {
		return 0, registration.NewFailedToWriteError("Failed to void expired prebooks", err)
	}

	return int(tag.RowsAffected()), nil
}
