package errors

import "errors"

var (
	ErrNotFound = errors.New("emergency admission not found")

	ErrInvalidID = errors.New("invalid emergency admission ID format")

	// ErrStatusOrder is returned when a status update would move the
	// admission backwards or sideways in the progression.
	ErrStatusOrder = errors.New("emergency status transition out of order")
)
