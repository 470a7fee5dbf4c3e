package errors

import "errors"

var (
	ErrNotFound = errors.New("queue entry not found")

	ErrInvalidID = errors.New("invalid queue entry ID format")

	// ErrQueueEmpty is returned by the promoter when no waiting entry
	// exists. Advancing an empty queue is informational, not a failure.
	ErrQueueEmpty = errors.New("queue is empty")
)
