package domain

import "errors"

// Sentinel errors shared across repositories, services, and transport.
var (
	// ErrValidation marks malformed or missing input. Validation failures
	// never touch the store.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a lost race on a conditional update.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredential marks a failed phone/PIN/area check.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNoClientAvailable means no enrolled contact is currently eligible.
	// A legitimate empty state, not a failure.
	ErrNoClientAvailable = errors.New("no client available")

	// ErrNoCurrentCampaign means no campaign window covers the current
	// instant for the area. A legitimate empty state.
	ErrNoCurrentCampaign = errors.New("no current campaign")

	// ErrNotInCall marks an outcome reported without an in-progress
	// assignment for the caller.
	ErrNotInCall = errors.New("caller not in call")

	// ErrCallerMismatch marks an outcome reported by a caller other than
	// the one holding the in-progress attempt.
	ErrCallerMismatch = errors.New("caller mismatch")

	// ErrInternalInconsistency marks a missing per-campaign attempt state
	// for an enrolled contact. Enrollment always initializes state, so this
	// indicates a bug and fails closed; history is never fabricated.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)
