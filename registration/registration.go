package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/users"
)

type Stage string

const (
	// STAGE_PREBOOK holds a seat while payment is pending.
	STAGE_PREBOOK Stage = "PREBOOK"
	// STAGE_BOOK is a finalized ticket.
	STAGE_BOOK Stage = "BOOK"
)

// Registration is a reserved seat against an event. Rows are never
// deleted; Voided marks cancelled or expired holds, which stop counting
// toward capacity but remain as an audit trail. The three redemption flags
// (HasArrived, BasicPerkApplied, AdvancedPerkApplied) are independent
// one-way transitions applied at the door.
type Registration struct {
	ID                  uuid.UUID
	Version             int
	EventID             uuid.UUID
	UserID              *uuid.UUID
	Email               string
	Stage               Stage
	HasPaid             bool
	HasArrived          bool
	BasicPerkApplied    bool
	AdvancedPerkApplied bool
	TicketCode          string
	PaymentRef          string
	PaymentExpiresAt    *time.Time
	Voided              bool
	SeatNo              int
	RegisteredAt        time.Time
}

// Holder identifies who a seat is reserved for: a known user, or a bare
// email for guest flows. At least one of UserID and Email must be set.
// TelegramChatID is optional and only feeds notification delivery.
type Holder struct {
	UserID         *uuid.UUID
	Email          string
	TelegramChatID *int64
}

func (h Holder) valid() bool {
	return h.UserID != nil || h.Email != ""
}

type GetAllRegistrationsResponse struct {
	Data        []Registration
	HasNextPage bool
}

type Repository interface {
	// CreateRegistrations writes the registrations and the updated event in
	// one transaction. The event write is conditional on the stored version
	// being event.Version-1; a lost race surfaces as REASON_STORE_CONFLICT
	// and a duplicate holder insert as REASON_ALREADY_REGISTERED.
	CreateRegistrations(ctx context.Context, regs []Registration, event events.Event) error
	GetRegistration(ctx context.Context, id uuid.UUID) (Registration, error)
	GetRegistrationByTicketCode(ctx context.Context, code string) (Registration, error)
	GetRegistrationsByPaymentRef(ctx context.Context, paymentRef string) ([]Registration, error)
	GetAllRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, limit int32, offset int32) (GetAllRegistrationsResponse, error)
	// UpdateRegistration is conditional on the stored version being
	// reg.Version-1, mirroring CreateRegistrations.
	UpdateRegistration(ctx context.Context, reg Registration) error
	CountRegistered(ctx context.Context, eventID uuid.UUID) (Counts, error)
	// SeatsForHolder returns the seat numbers of the holder's non-voided
	// registrations for the event, in ascending order.
	SeatsForHolder(ctx context.Context, eventID uuid.UUID, holder Holder) ([]int, error)
	ListContactsForEvent(ctx context.Context, eventID uuid.UUID) ([]Contact, error)
	VoidExpiredPrebooks(ctx context.Context, now time.Time) (int, error)
}

// Limits carries the per-user ticket caps and the payment hold TTL. The
// exact cap values are deployment configuration, not invariants.
type Limits struct {
	PerUserCap     int
	GroupCap       int
	PaymentHoldTTL time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		PerUserCap:     1,
		GroupCap:       5,
		PaymentHoldTTL: 30 * time.Minute,
	}
}

type ReserveRequest struct {
	EventID  uuid.UUID
	Holder   Holder
	Quantity int
}

type ReserveResult struct {
	Registrations   []Registration
	PaymentRequired bool
	EventConfirmed  bool
}

// How many times a reservation is retried when a concurrent write bumps
// the event version between our read and our conditional update.
const reserveAttempts = 3

// Reserve validates a registration intent against capacity and per-user
// limits and performs the atomic reservation. Free events are finalized
// immediately (stage BOOK, paid) and the ticket-issued notification fires
// as part of this call. Paid events require a payment reference minted by
// RegisterWithPayment; calling Reserve directly on a paid event returns
// REASON_PAYMENT_REQUIRED.
//
// If the reservation pushes the event's registered total to MinAttendees
// for the first time, the event's confirmed flag flips inside the same
// conditional write and every known contact is notified once.
func Reserve(ctx context.Context, req ReserveRequest, eventRepo events.Repository, repo Repository, notifier Notifier, limits Limits) (ReserveResult, error) {
	ctx, span := tracer.Start(ctx, "registration.Reserve")
	defer span.End()

	result, event, err := reserveWithRetry(ctx, req, "", nil, eventRepo, repo, limits)
	if err != nil {
		return ReserveResult{}, err
	}

	if result.PaymentRequired {
		return ReserveResult{}, NewPaymentRequiredError(fmt.Sprintf("Event %q requires payment, use RegisterWithPayment", req.EventID))
	}

	notifyAfterReserve(ctx, result, event, req.Holder, repo, notifier)

	return result, nil
}

func reserveWithRetry(ctx context.Context, req ReserveRequest, paymentRef string, paymentExpiresAt *time.Time, eventRepo events.Repository, repo Repository, limits Limits) (ReserveResult, events.Event, error) {
	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		result, event, err := reserveOnce(ctx, req, paymentRef, paymentExpiresAt, eventRepo, repo, limits)
		if err == nil {
			return result, event, nil
		}

		var regErr *Error
		if errors.As(err, &regErr) && regErr.Reason == REASON_STORE_CONFLICT {
			lastErr = err
			continue
		}
		return ReserveResult{}, events.Event{}, err
	}

	return ReserveResult{}, events.Event{}, NewStoreConflictError(
		fmt.Sprintf("Reservation for event %q lost %d consecutive version races", req.EventID, reserveAttempts), lastErr)
}

// reserveOnce performs one optimistic attempt: fresh reads, in-memory
// validation, then the transactional insert. Validation fully precedes any
// mutation; a failed attempt writes nothing.
func reserveOnce(ctx context.Context, req ReserveRequest, paymentRef string, paymentExpiresAt *time.Time, eventRepo events.Repository, repo Repository, limits Limits) (ReserveResult, events.Event, error) {
	if req.Quantity < 1 {
		return ReserveResult{}, events.Event{}, NewInvalidQuantityError(fmt.Sprintf("Quantity must be at least 1, got %d", req.Quantity))
	}
	if !req.Holder.valid() {
		return ReserveResult{}, events.Event{}, NewMissingContactError("A registration needs a user or an email")
	}

	event, err := eventRepo.GetEvent(ctx, req.EventID)
	if err != nil {
		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_EVENT_DOES_NOT_EXIST {
			return ReserveResult{}, events.Event{}, NewEventNotFoundError(fmt.Sprintf("Event does not exist with ID %q", req.EventID), err)
		}
		return ReserveResult{}, events.Event{}, NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", req.EventID), err)
	}

	holderCap := limits.PerUserCap
	if event.GroupEvent {
		holderCap = limits.GroupCap
	}

	heldSeats, err := repo.SeatsForHolder(ctx, req.EventID, req.Holder)
	if err != nil {
		return ReserveResult{}, events.Event{}, NewFailedToFetchError("Failed to fetch holder registrations", err)
	}
	if len(heldSeats)+req.Quantity > holderCap {
		return ReserveResult{}, events.Event{}, NewPerUserLimitExceededError(
			fmt.Sprintf("Holder has %d of %d allowed tickets for event %q", len(heldSeats), holderCap, req.EventID))
	}

	counts, err := repo.CountRegistered(ctx, req.EventID)
	if err != nil {
		return ReserveResult{}, events.Event{}, NewFailedToFetchError("Failed to count event registrations", err)
	}
	if !event.Uncapped() && counts.Total+req.Quantity > *event.MaxAttendees {
		return ReserveResult{}, events.Event{}, NewCapacityExceededError(
			fmt.Sprintf("Event %q has %d of %d seats taken", req.EventID, counts.Total, *event.MaxAttendees))
	}

	paymentRequired := !event.IsFree()
	if paymentRequired && paymentRef == "" {
		// Reported to the caller before anything is written so that
		// RegisterWithPayment can run the checkout step first.
		return ReserveResult{PaymentRequired: true}, event, nil
	}

	// Seat numbers must dodge the holder's surviving rows: cancelling seat 1
	// of 2 leaves seat 2 live, so the next reservation reuses seat 1 rather
	// than colliding with seat 2 under the unique index.
	taken := make(map[int]bool, len(heldSeats))
	for _, seat := range heldSeats {
		taken[seat] = true
	}

	nextSeat := 1
	now := time.Now()
	regs := make([]Registration, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		for taken[nextSeat] {
			nextSeat++
		}
		taken[nextSeat] = true

		reg := Registration{
			ID:           uuid.New(),
			Version:      1,
			EventID:      req.EventID,
			UserID:       req.Holder.UserID,
			Email:        req.Holder.Email,
			TicketCode:   NewTicketCode(),
			SeatNo:       nextSeat,
			RegisteredAt: now,
		}
		if paymentRequired {
			reg.Stage = STAGE_PREBOOK
			reg.PaymentRef = paymentRef
			reg.PaymentExpiresAt = paymentExpiresAt
		} else {
			reg.Stage = STAGE_BOOK
			reg.HasPaid = true
		}
		regs = append(regs, reg)
	}

	confirmed := false
	if !event.IsConfirmed && counts.Total+req.Quantity >= event.MinAttendees {
		event.IsConfirmed = true
		confirmed = true
	}
	event.Version++

	err = repo.CreateRegistrations(ctx, regs, event)
	if err != nil {
		return ReserveResult{}, events.Event{}, err
	}

	return ReserveResult{
		Registrations:   regs,
		PaymentRequired: paymentRequired,
		EventConfirmed:  confirmed,
	}, event, nil
}

// notifyAfterReserve fires the post-reservation notifications. Both are
// best effort: the reservation is already committed and stays valid even
// if no message can be delivered.
func notifyAfterReserve(ctx context.Context, result ReserveResult, event events.Event, holder Holder, repo Repository, notifier Notifier) {
	if notifier == nil {
		return
	}

	if !result.PaymentRequired && len(result.Registrations) > 0 {
		notifier.Notify(ctx, NOTIFICATION_TICKET_ISSUED, event, []Contact{holderContact(holder)})
	}

	if result.EventConfirmed {
		recipients, err := repo.ListContactsForEvent(ctx, event.ID)
		if err != nil {
			// The flip is already durable; the broadcast is retried by no
			// one. Deliver to the requester at minimum.
			recipients = []Contact{holderContact(holder)}
		}
		notifier.Notify(ctx, NOTIFICATION_EVENT_CONFIRMED, event, recipients)
	}
}

func holderContact(h Holder) Contact {
	return Contact{Email: h.Email, TelegramChatID: h.TelegramChatID}
}

// Cancel voids a registration. Permitted for the registration's owner and
// for organizer/admin roles. Voiding frees a seat but never reverts an
// event's confirmed flag. Cancelling an already-void registration is a
// no-op.
func Cancel(ctx context.Context, regID uuid.UUID, actorID uuid.UUID, actorRole users.Role, repo Repository) (Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.Cancel")
	defer span.End()

	reg, err := repo.GetRegistration(ctx, regID)
	if err != nil {
		return Registration{}, err
	}

	if !users.CanCancelRegistration(actorID, actorRole, reg.UserID) {
		return Registration{}, NewNotAuthorizedError(fmt.Sprintf("Actor %q may not cancel registration %q", actorID, regID))
	}

	if reg.Voided {
		return reg, nil
	}

	reg.Voided = true
	reg.Version++
	err = repo.UpdateRegistration(ctx, reg)
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}
