package mixer

import "errors"

var (
	// ErrNoReaderAvailable is returned when no domain applies to a location.
	ErrNoReaderAvailable = errors.New("no applicable model at this location")

	// ErrInvariantViolation signals a bug: a fused read produced no data even
	// though the mixer holds at least one reader.
	ErrInvariantViolation = errors.New("mixer invariant violated")
)
