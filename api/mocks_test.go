package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tea-network/teanet/events"
	"github.com/tea-network/teanet/registration"
	"github.com/tea-network/teanet/rsvp"
	"github.com/tea-network/teanet/users"
	"google.golang.org/api/idtoken"
)

var noopLogger = slog.New(slog.DiscardHandler)

const testAudience = "test-audience"

type mockAuthValidator struct {
	ValidateFunc func(ctx context.Context, token string, audience string) (*idtoken.Payload, error)
}

func (m *mockAuthValidator) Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token, audience)
	}
	return &idtoken.Payload{
		Expires: time.Now().Add(time.Hour).Unix(),
		Claims:  map[string]any{"email": "test@example.com"},
	}, nil
}

type mockNotifier struct {
	NotifyFunc func(ctx context.Context, kind registration.NotificationKind, event events.Event, recipients []registration.Contact)
}

func (m *mockNotifier) Notify(ctx context.Context, kind registration.NotificationKind, event events.Event, recipients []registration.Contact) {
	if m.NotifyFunc != nil {
		m.NotifyFunc(ctx, kind, event, recipients)
	}
}

type mockCheckoutManager struct {
	CreateCheckoutFunc  func(ctx context.Context, params registration.CheckoutParams) (registration.CheckoutInfo, error)
	ConfirmCheckoutFunc func(ctx context.Context, payload []byte, signature string) (registration.CheckoutConfirmation, error)
}

func (m *mockCheckoutManager) CreateCheckout(ctx context.Context, params registration.CheckoutParams) (registration.CheckoutInfo, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, params)
	}
	return registration.CheckoutInfo{}, nil
}

func (m *mockCheckoutManager) ConfirmCheckout(ctx context.Context, payload []byte, signature string) (registration.CheckoutConfirmation, error) {
	if m.ConfirmCheckoutFunc != nil {
		return m.ConfirmCheckoutFunc(ctx, payload, signature)
	}
	return registration.CheckoutConfirmation{}, nil
}

func newTestAPI(db *mockDB) *API {
	return NewAPI(
		db,
		noopLogger,
		LOCAL,
		&mockAuthValidator{},
		testAudience,
		&mockCheckoutManager{},
		&mockNotifier{},
		registration.DefaultLimits(),
		"https://tea.network/checkout/return",
	)
}

// loggedInUser primes the mock so that any request carrying a login cookie
// resolves to this user.
func loggedInUser(db *mockDB, user users.User) {
	db.GetUserByEmailFunc = func(ctx context.Context, email string) (users.User, error) {
		return user, nil
	}
}

var _ DB = &mockDB{}

type mockDB struct {
	GetEventsFunc                   func(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error)
	GetEventFunc                    func(ctx context.Context, id uuid.UUID) (events.Event, error)
	CreateEventFunc                 func(ctx context.Context, event events.Event) error
	UpdateEventFunc                 func(ctx context.Context, event events.Event) error
	CreateRegistrationsFunc         func(ctx context.Context, regs []registration.Registration, event events.Event) error
	GetRegistrationFunc             func(ctx context.Context, id uuid.UUID) (registration.Registration, error)
	GetRegistrationByTicketCodeFunc func(ctx context.Context, code string) (registration.Registration, error)
	GetRegistrationsByPaymentRefFunc func(ctx context.Context, paymentRef string) ([]registration.Registration, error)
	GetAllRegistrationsForEventFunc func(ctx context.Context, eventID uuid.UUID, limit int32, offset int32) (registration.GetAllRegistrationsResponse, error)
	UpdateRegistrationFunc          func(ctx context.Context, reg registration.Registration) error
	CountRegisteredFunc             func(ctx context.Context, eventID uuid.UUID) (registration.Counts, error)
	SeatsForHolderFunc              func(ctx context.Context, eventID uuid.UUID, holder registration.Holder) ([]int, error)
	ListContactsForEventFunc        func(ctx context.Context, eventID uuid.UUID) ([]registration.Contact, error)
	VoidExpiredPrebooksFunc         func(ctx context.Context, now time.Time) (int, error)
	GetUserFunc                     func(ctx context.Context, id uuid.UUID) (users.User, error)
	GetUserByEmailFunc              func(ctx context.Context, email string) (users.User, error)
	GetUserByTelegramChatIDFunc     func(ctx context.Context, chatID int64) (users.User, error)
	CreateUserFunc                  func(ctx context.Context, user users.User) error
	UpdateUserFunc                  func(ctx context.Context, user users.User) error
	GetRSVPFunc                     func(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (rsvp.RSVP, error)
	CreateRSVPFunc                  func(ctx context.Context, r rsvp.RSVP) error
	DeleteRSVPFunc                  func(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error
	ListRSVPsForEventFunc           func(ctx context.Context, eventID uuid.UUID) ([]rsvp.RSVP, error)
}

func (m *mockDB) GetEvents(ctx context.Context, limit int32, offset int32) (events.GetEventsResponse, error) {
	return m.GetEventsFunc(ctx, limit, offset)
}

func (m *mockDB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	return m.GetEventFunc(ctx, id)
}

func (m *mockDB) CreateEvent(ctx context.Context, event events.Event) error {
	return m.CreateEventFunc(ctx, event)
}

func (m *mockDB) UpdateEvent(ctx context.Context, event events.Event) error {
	return m.UpdateEventFunc(ctx, event)
}

func (m *mockDB) CreateRegistrations(ctx context.Context, regs []registration.Registration, event events.Event) error {
	return m.CreateRegistrationsFunc(ctx, regs, event)
}

func (m *mockDB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	return m.GetRegistrationFunc(ctx, id)
}

func (m *mockDB) GetRegistrationByTicketCode(ctx context.Context, code string) (registration.Registration, error) {
	return m.GetRegistrationByTicketCodeFunc(ctx, code)
}

func (m *mockDB) GetRegistrationsByPaymentRef(ctx context.Context, paymentRef string) ([]registration.Registration, error) {
	return m.GetRegistrationsByPaymentRefFunc(ctx, paymentRef)
}

func (m *mockDB) GetAllRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, limit int32, offset int32) (registration.GetAllRegistrationsResponse, error) {
	return m.GetAllRegistrationsForEventFunc(ctx, eventID, limit, offset)
}

func (m *mockDB) UpdateRegistration(ctx context.Context, reg registration.Registration) error {
	return m.UpdateRegistrationFunc(ctx, reg)
}

func (m *mockDB) CountRegistered(ctx context.Context, eventID uuid.UUID) (registration.Counts, error) {
	if m.CountRegisteredFunc != nil {
		return m.CountRegisteredFunc(ctx, eventID)
	}
	return registration.Counts{}, nil
}

func (m *mockDB) SeatsForHolder(ctx context.Context, eventID uuid.UUID, holder registration.Holder) ([]int, error) {
	if m.SeatsForHolderFunc != nil {
		return m.SeatsForHolderFunc(ctx, eventID, holder)
	}
	return nil, nil
}

func (m *mockDB) ListContactsForEvent(ctx context.Context, eventID uuid.UUID) ([]registration.Contact, error) {
	if m.ListContactsForEventFunc != nil {
		return m.ListContactsForEventFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockDB) VoidExpiredPrebooks(ctx context.Context, now time.Time) (int, error) {
	if m.VoidExpiredPrebooksFunc != nil {
		return m.VoidExpiredPrebooksFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockDB) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *mockDB) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}

func (m *mockDB) GetUserByTelegramChatID(ctx context.Context, chatID int64) (users.User, error) {
	return m.GetUserByTelegramChatIDFunc(ctx, chatID)
}

func (m *mockDB) CreateUser(ctx context.Context, user users.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return nil
}

func (m *mockDB) UpdateUser(ctx context.Context, user users.User) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, user)
	}
	return nil
}

func (m *mockDB) GetRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) (rsvp.RSVP, error) {
	return m.GetRSVPFunc(ctx, eventID, userID)
}

func (m *mockDB) CreateRSVP(ctx context.Context, r rsvp.RSVP) error {
	return m.CreateRSVPFunc(ctx, r)
}

func (m *mockDB) DeleteRSVP(ctx context.Context, eventID uuid.UUID, userID uuid.UUID) error {
	return m.DeleteRSVPFunc(ctx, eventID, userID)
}

func (m *mockDB) ListRSVPsForEvent(ctx context.Context, eventID uuid.UUID) ([]rsvp.RSVP, error) {
	return m.ListRSVPsForEventFunc(ctx, eventID)
}
