package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a request collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrCancelled marks cooperative cancellation. It is an outcome, not a failure.
	ErrCancelled = errors.New("cancelled")
)
