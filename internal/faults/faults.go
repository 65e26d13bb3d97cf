// Package faults defines the error kinds shared across services and storage.
//
// Services wrap these sentinels with context via fmt.Errorf("%w: ...") and
// callers classify them with errors.Is. The HTTP layer owns the mapping to
// status codes; nothing in this package knows about transports.
package faults

import "errors"

var (
	// ErrValidation marks malformed input: bad share totals, empty expense
	// sets, out-of-range transaction indexes. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks an operation that contradicts current state: an
	// overlapping finalized period, finalizing a partially settled record,
	// or settling a transaction twice.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a caller who is not a member (or not the head)
	// of the family they are operating on.
	ErrForbidden = errors.New("forbidden")

	// ErrPersistence marks a transient storage failure. Retry policy
	// belongs to the caller.
	ErrPersistence = errors.New("persistence failure")
)
