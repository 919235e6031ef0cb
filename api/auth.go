package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tea-network/teanet/users"
	"google.golang.org/api/idtoken"
)

// AuthValidator verifies a Google ID token and returns its payload.
type AuthValidator interface {
	Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error)
}

type GoogleAuthValidator struct{}

func (GoogleAuthValidator) Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}

// userFromToken validates the token and resolves it to a stored user,
// creating the account on first login.
func (a *API) userFromToken(ctx context.Context, token string) (users.User, error) {
	jwt, err := a.googleIdVerifier.Validate(ctx, token, a.googleAudience)
	if err != nil {
		return users.User{}, fmt.Errorf("invalid token: %w", err)
	}

	return a.userFromPayload(ctx, jwt)
}

// userFromPayload resolves an already-validated token payload to a stored
// user, creating the account on first login.
func (a *API) userFromPayload(ctx context.Context, jwt *idtoken.Payload) (users.User, error) {
	email, ok := jwt.Claims["email"].(string)
	if !ok || email == "" {
		return users.User{}, fmt.Errorf("token has no email claim")
	}

	user, err := a.db.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}

	var userErr *users.Error
	if !errors.As(err, &userErr) || userErr.Reason != users.REASON_USER_DOES_NOT_EXIST {
		return users.User{}, err
	}

	user = users.User{
		ID:        uuid.New(),
		Email:     email,
		Role:      users.ROLE_USER,
		CreatedAt: time.Now(),
	}
	err = a.db.CreateUser(ctx, user)
	if err != nil {
		// Lost a race against another first login with the same email.
		if errors.As(err, &userErr) && userErr.Reason == users.REASON_USER_ALREADY_EXISTS {
			return a.db.GetUserByEmail(ctx, email)
		}
		return users.User{}, err
	}

	return user, nil
}
