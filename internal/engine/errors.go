package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to recorders. Rejected operations never mutate the
// event log or the derived aggregates; the client discards its optimistic
// state and resynchronizes from a snapshot.
var (
	// ErrStateConflict marks an operation invalid for the current lifecycle
	// state, e.g. pausing a completed game.
	ErrStateConflict = errors.New("state conflict")

	// ErrValidation marks malformed input: unknown player or team,
	// out-of-range time, negative quarter.
	ErrValidation = errors.New("validation failed")

	// ErrStaleUndo marks an undo whose target has been superseded by a later
	// event. The log is unchanged.
	ErrStaleUndo = errors.New("stale undo")

	// ErrSequenceConflict marks an attempt to start a free-throw sequence
	// while one is active.
	ErrSequenceConflict = errors.New("free throw sequence already active")

	// ErrNoActiveSequence marks a free-throw attempt recorded with no
	// sequence active.
	ErrNoActiveSequence = errors.New("no active free throw sequence")

	// ErrGameNotFound marks an operation against a game the engine is not
	// tracking.
	ErrGameNotFound = errors.New("game not found")

	// ErrNoPendingPrompt marks a resolve/dismiss against a prompt that has
	// already expired or been superseded.
	ErrNoPendingPrompt = errors.New("no pending prompt")
)

func stateConflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
