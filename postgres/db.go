package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB implements every repository interface of the domain packages on a
// single pgx connection pool. Writes to versioned entities are conditional
// on the stored version being exactly one behind, so concurrent writers
// lose cleanly instead of clobbering each other; unique indexes are the
// backstop for duplicate races that slip past the pre-checks.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a violation of the named unique
// constraint or index. An empty name matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
