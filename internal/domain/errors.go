package domain

import "errors"

// Error taxonomy shared by the store, the registry and the HTTP layer.
// All four request-scoped errors are terminal for the operation that
// raised them; nothing retries them internally.
var (
	// ErrNotFound means the entity is absent or not owned by the
	// caller. Cross-owner access is deliberately indistinguishable
	// from a missing record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a uniqueness violation: duplicate tag name for
	// an owner, or a duplicate bookmark-tag association.
	ErrConflict = errors.New("already exists")

	// ErrValidation covers missing or invalid input fields.
	ErrValidation = errors.New("invalid input")

	// ErrUnauthenticated means no session or an expired one.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStoreUnavailable wraps transient persistence failures.
	// Callers may retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
)
