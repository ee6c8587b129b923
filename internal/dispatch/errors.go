package dispatch

import "errors"

// Sentinel errors for dispatcher construction.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoTopics is returned when a dispatcher is built without topics.
	ErrNoTopics = errors.New("dispatch: at least one topic is required")

	// ErrNilPublisher is returned when a dispatcher is built without a
	// publisher collaborator.
	ErrNilPublisher = errors.New("dispatch: publisher is required")

	// ErrDuplicateTopic is returned when two topics share a name.
	ErrDuplicateTopic = errors.New("dispatch: duplicate topic name")
)
