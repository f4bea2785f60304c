package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campus/pkg/platform/sentinel"
)

// SQLSTATE codes the stores branch on.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	queryCanceled       = "57014"
)

// WrapError annotates err with op. A statement cancelled by Postgres, either
// by statement_timeout or by lib/pq after the context ended, also matches
// sentinel.ErrTimeout; lib/pq does not wrap the context error in that case.
func WrapError(op string, err error) error {
	if hasCode(err, queryCanceled) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
