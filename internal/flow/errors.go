package flow

import "errors"

// Sentinel errors returned (wrapped) by engine commands. Test with errors.Is.
var (
	// ErrValidation is returned for malformed input; state is unchanged.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a command names an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a command would break the task
	// lifecycle, such as completing a task twice.
	ErrInvalidState = errors.New("invalid state")
)
