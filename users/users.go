package users

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	ROLE_USER      Role = "USER"
	ROLE_ORGANIZER Role = "ORGANIZER"
	ROLE_ADMIN     Role = "ADMIN"
)

// User is an account known to the platform. Email is the primary contact;
// WalletAddress and TelegramChatID are optional channels linked by the
// owner. Role changes only through administrative action.
type User struct {
	ID             uuid.UUID
	Email          string
	WalletAddress  *string
	TelegramChatID *int64
	Role           Role
	CreatedAt      time.Time
}

type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (User, error)
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
}
