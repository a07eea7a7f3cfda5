package port

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation targets an entity
	// already in a terminal or incompatible state, e.g. resolving an
	// already-resolved suggestion.
	ErrInvalidState = errors.New("invalid state")

	// ErrFingerprintConflict signals that an insert lost a uniqueness
	// race on (source, fingerprint). It is handled inside the upsert by
	// retrying as a merge and never reaches a caller.
	ErrFingerprintConflict = errors.New("fingerprint conflict")
)

// ValidationError marks a submission that is missing a required field
// or carries a malformed value. It is decided before any scoring or
// store access and has no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: field %s: %s", e.Field, e.Reason)
}

// QualityRejectedError marks content that scored below the acceptance
// threshold. It is an expected outcome, not a fault: no record is
// created or mutated, and callers may log and drop.
type QualityRejectedError struct {
	Score     float64
	Threshold float64
}

func (e *QualityRejectedError) Error() string {
	return fmt.Sprintf("quality rejected: score %.1f below threshold %.1f", e.Score, e.Threshold)
}
