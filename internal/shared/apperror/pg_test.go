package apperror_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"go-hrms/internal/shared/apperror"
)

func TestFromDB(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, apperror.FromDB(nil))
	})

	t.Run("app errors pass through untouched", func(t *testing.T) {
		err := apperror.FromDB(apperror.ErrNotFound)

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("deadline exceeded maps to timeout", func(t *testing.T) {
		err := apperror.FromDB(fmt.Errorf("query: %w", context.DeadlineExceeded))

		assert.ErrorIs(t, err, apperror.ErrTimeout)
	})

	cases := []struct {
		name string
		code string
		want error
	}{
		{"serialization failure", "40001", apperror.ErrConcurrentModification},
		{"deadlock detected", "40P01", apperror.ErrConcurrentModification},
		{"lock not available", "55P03", apperror.ErrConcurrentModification},
		{"query canceled", "57014", apperror.ErrTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := apperror.FromDB(&pgconn.PgError{Code: tc.code})

			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("unknown driver error passes through", func(t *testing.T) {
		cause := errors.New("pq: connection reset by peer")

		err := apperror.FromDB(cause)

		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, apperror.ErrConcurrentModification)
		assert.NotErrorIs(t, err, apperror.ErrTimeout)
	})
}

func TestUniqueViolation(t *testing.T) {
	assert.True(t, apperror.UniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, apperror.UniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.False(t, apperror.UniqueViolation(errors.New("duplicate key")))
}
