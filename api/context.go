package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tea-network/teanet/users"
)

type ctxKey string

const (
	ctxRequestIdKey ctxKey = "REQUEST_ID"
	ctxLoggerKey    ctxKey = "LOGGER"
	ctxUserKey      ctxKey = "USER"
)

func ctxWithRequestId(ctx context.Context, requestId uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxRequestIdKey, requestId)
}

func getRequestIdFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxRequestIdKey).(uuid.UUID)
	return id
}

func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, logger)
}

func (a *API) getLoggerOrBaseLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxLoggerKey).(*slog.Logger)
	if !ok {
		return a.logger
	}
	return logger
}

func ctxWithUser(ctx context.Context, user users.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, user)
}

// getUserFromCtx returns the authenticated user, if any. Guest requests
// carry no user.
func getUserFromCtx(ctx context.Context) (users.User, bool) {
	user, ok := ctx.Value(ctxUserKey).(users.User)
	return user, ok
}
