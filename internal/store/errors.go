package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses against a uniqueness or
// referential constraint: a second open trip for a vehicle, a duplicate
// active assignment, or deleting a user still referenced by history.
var ErrConflict = errors.New("conflict")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// mapConstraintErr translates Postgres constraint violations into the store's
// sentinel errors so callers never depend on driver error types.
func mapConstraintErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation, pqForeignKeyViolation, pqCheckViolation:
			return ErrConflict
		}
	}
	return err
}
