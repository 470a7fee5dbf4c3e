package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrStateChanged is returned by conditional transitions when the
	// document no longer matched the expected source state.
	ErrStateChanged = errors.New("reservation state changed concurrently")
)
