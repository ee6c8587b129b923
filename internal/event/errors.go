package event

import "errors"

// Sentinel errors for event decoding.
var (
	// ErrMalformedEvent is returned when a bus payload is not a
	// structurally valid state-change event.
	ErrMalformedEvent = errors.New("event: malformed state-change event")
)
