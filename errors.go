package parley

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a message or send request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated indicates an action was attempted without a
	// resolved user identity. No network call is made in this case.
	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrRelationMissing indicates the backend message table does not
	// exist (Postgres "undefined relation"). Callers treat this as a
	// permanent condition for the session and degrade to memory-only mode.
	ErrRelationMissing = errors.New("message relation missing")

	// ErrListenerClosed indicates an operation on a closed listener.
	ErrListenerClosed = errors.New("listener closed")
)
