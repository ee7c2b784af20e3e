package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// OverlapViolationMessage is raised by the SQLite overlap triggers.
const OverlapViolationMessage = "appointment_overlap"

// IsNoRows reports an empty single-row result from either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// IsOverlapViolation reports that the storage-level non-overlap backstop
// rejected a write: the Postgres exclusion constraint (23P01) or the SQLite
// trigger.
func IsOverlapViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01"
	}
	return strings.Contains(err.Error(), OverlapViolationMessage)
}

// IsUniqueViolation reports a unique index violation from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
