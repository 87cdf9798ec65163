package store

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced to the API layer, which maps them to HTTP statuses.
var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the caller. Ownership checks fail with ErrNotFound so they don't
	// leak existence.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique name is already taken.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientStock is returned when the central ledger cannot cover a
	// requested quantity. The ledger is left unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientPersonalStock is returned when an engineer's holdings
	// cannot cover an issuance. No usage record is written.
	ErrInsufficientPersonalStock = errors.New("insufficient personal stock")

	// ErrInvalidTransition is returned when a request is not in a state the
	// attempted action accepts.
	ErrInvalidTransition = errors.New("invalid state for this action")
)

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
