package errors

import "errors"

var (
	ErrNotFound = errors.New("bed not found")

	ErrInvalidID = errors.New("invalid bed ID format")

	// ErrNoneAvailable is returned by the allocator when no free bed of the
	// requested category exists at the moment of the conditional update.
	ErrNoneAvailable = errors.New("no free bed available")

	// ErrNotOccupied is returned by Release when the bed was already free.
	ErrNotOccupied = errors.New("bed is not occupied")

	ErrDuplicateNumber = errors.New("bed number already exists in facility")
)
