package model

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = sqlx.ErrNotFound

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, used to treat duplicate inserts as already-done work. Both
// driver error types are matched: the pgx stdlib driver surfaces
// *pgconn.PgError, lib/pq surfaces *pq.Error.
func IsUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == uniqueViolationCode
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
