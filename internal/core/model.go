package core

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx (for Query).
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgxExecer is satisfied by both *pgxpool.Pool and pgx.Tx (for Exec).
type pgxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// pgxReader runs both single-row and multi-row queries.
type pgxReader interface {
	pgxQuerier
	pgxRowQuerier
}

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
// An empty constraint matches any unique constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Clock supplies the current time for date-stamped records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// dateOnly truncates t to midnight in its own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// checkLength rejects a value longer than its VARCHAR column.
func checkLength(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return validationErrorf("%s must be at most %d characters, got %d", field, max, n)
	}
	return nil
}
