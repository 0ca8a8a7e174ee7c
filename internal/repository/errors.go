// Package repository holds the SQL data access for the reservation
// service.  Repositories share the sentinel errors below so higher layers
// (the booking engine and the HTTP handlers) can tell failure scenarios
// apart without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key.  For
// reservations this means another active reservation already holds the
// (room, date, slot) triple.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when an update cannot be performed because of
// the current state of the row, such as changing the status of a
// reservation that is no longer active.  Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrLastEnrollment is returned when removing an enrollment would leave
// the participant without any.
var ErrLastEnrollment = errors.New("participant must keep at least one enrollment")

// DBTX is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// IsUniqueViolation reports whether err is a unique or primary key
// violation from either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows to ErrNotFound and passes anything else
// through unchanged.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
