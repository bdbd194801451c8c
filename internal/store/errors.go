package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, e.g. two accounts with the same email. The constraint is
// enforced by the database so concurrent creations race safely.
var ErrDuplicate = errors.New("duplicate record")

const pqUniqueViolation = "23505"

// mapError translates driver-level errors into store sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicate
	}
	return err
}
