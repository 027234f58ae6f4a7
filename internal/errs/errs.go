package errs

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// IsCancelled reports whether err is the result of a caller abandoning the
// request. Such errors are a no-op outcome and must not be reported as failures.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsNotFound matches both ErrNotFound and sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
