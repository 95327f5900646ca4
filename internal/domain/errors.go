package domain

import "errors"

// Common errors
var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid id")
)

// Validation errors
var (
	ErrInvalidAttempt    = errors.New("invalid attempt: weight must be positive and reps at least 1")
	ErrInvalidUnit       = errors.New("invalid unit (must be kg or lb)")
	ErrInvalidRecordKind = errors.New("invalid record kind (must be Strength or Volume)")
	ErrInvalidEntryType  = errors.New("invalid set entry type (must be Lift, Run or Ride)")
)

// IsNotFound reports whether err means the resource does not exist or is not
// owned by the caller. Both cases are reported the same way so existence of
// another user's data is never leaked.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrInvalidID,
		ErrMovementNotFound,
		ErrExerciseConfigurationNotFound,
		ErrSessionNotFound,
		ErrSetEntryNotFound,
		ErrRecordNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
