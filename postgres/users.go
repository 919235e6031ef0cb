package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tea-network/teanet/users"
)

var _ users.Repository = &DB{}

const userColumns = `id, email, wallet_address, telegram_chat_id, role, created_at`

func scanUserRow(row pgx.Row) (users.User, error) {
	var u users.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.WalletAddress, &u.TelegramChatID, &role, &u.CreatedAt)
	u.Role = users.Role(role)
	return u, err
}

func (d *DB) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	u, err := scanUserRow(d.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.NewUserDoesNotExistError(fmt.Sprintf("User with ID %q not found", id), nil)
		}
		return users.User{}, users.NewFailedToFetchError(fmt.Sprintf("Failed to fetch user with ID %q", id), err)
	}

	return u, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	u, err := scanUserRow(d.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.NewUserDoesNotExistError(fmt.Sprintf("No user with email %q", email), nil)
		}
		return users.User{}, users.NewFailedToFetchError(fmt.Sprintf("Failed to fetch user by email %q", email), err)
	}

	return u, nil
}

func (d *DB) GetUserByTelegramChatID(ctx context.Context, chatID int64) (users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	u, err := scanUserRow(d.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_chat_id = $1`, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.NewUserDoesNotExistError(fmt.Sprintf("No user linked to telegram chat %d", chatID), nil)
		}
		return users.User{}, users.NewFailedToFetchError("Failed to fetch user by telegram chat", err)
	}

	return u, nil
}

func (d *DB) CreateUser(ctx context.Context, user users.User) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.WalletAddress, user.TelegramChatID, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "") {
			return users.NewUserAlreadyExistsError(fmt.Sprintf("User with email %q already exists", user.Email), err)
		}
		return users.NewFailedToWriteError("Failed to insert user", err)
	}

	return nil
}

func (d *DB) UpdateUser(ctx context.Context, user users.User) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	tag, err := d.pool.Exec(ctx,
		`UPDATE users SET email = $2, wallet_address = $3, telegram_chat_id = $4, role = $5
		 WHERE id = $1`,
		user.ID, user.Email, user.WalletAddress, user.TelegramChatID, string(user.Role),
	)
	if err != nil {
		if uniqueViolation(err, "") {
			return users.NewUserAlreadyExistsError(fmt.Sprintf("Another user already holds email %q or that telegram chat", user.Email), err)
		}
		return users.NewFailedToWriteError("Failed to update user", err)
	}
	if tag.RowsAffected() == 0 {
		return users.NewUserDoesNotExistError(fmt.Sprintf("User with ID %q does not exist", user.ID), nil)
	}

	return nil
}
