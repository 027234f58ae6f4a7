package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
)

const uniqueViolation = "23505"

// notFound maps sql.ErrNoRows to errs.ErrNotFound and logs anything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, errs.ErrNotFound)
	}
	if !errs.IsCancelled(err) {
		log.Error().Err(err).Msgf("[db] failed to load %s", what)
	}
	return err
}

// conflict turns a unique-key violation into errs.ErrConflict.
func conflict(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s (%s): %w", what, pqErr.Constraint, errs.ErrConflict)
	}
	return err
}

func expectOneRow(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, errs.ErrNotFound)
	}
	return nil
}
