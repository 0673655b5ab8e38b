package apperror

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the services translate instead of leaking.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgQueryCanceled        = "57014"
)

// UniqueViolation reports whether err is a unique-constraint violation, so
// callers can map it onto their own conflict sentinel.
func UniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// FromDB translates driver-level failures into the retryable taxonomy.
// Errors that are already AppErrors pass through; anything unrecognized is
// returned as-is for the handler to treat as internal.
func FromDB(err error) error {
	if err == nil {
		return nil
	}

	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout.WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return ErrConcurrentModification.WithCause(err)
		case pgQueryCanceled:
			return ErrTimeout.WithCause(err)
		}
	}

	return err
}
