package registry

import "errors"

var (
	// ErrAlreadyExists is returned by Create when the cohort id is taken.
	ErrAlreadyExists = errors.New("cohort already exists")

	// ErrNotFound is returned when no cohort has the given id.
	ErrNotFound = errors.New("cohort not found")

	// ErrInvalidTransition is returned by Advance when the requested state
	// change is not allowed from the cohort's current state, or when the
	// row changed under the caller.
	ErrInvalidTransition = errors.New("invalid cohort state transition")
)
