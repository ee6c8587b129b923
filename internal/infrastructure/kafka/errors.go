package kafka

import "errors"

// Sentinel errors for Kafka operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoBrokers is returned when no broker addresses are configured.
	ErrNoBrokers = errors.New("kafka: no brokers configured")

	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("kafka: producer closed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("kafka: publish failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("kafka: topic cannot be empty")
)
