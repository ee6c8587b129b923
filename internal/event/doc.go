// Package event models Home Assistant state-change events for statebridge.
//
// Events arrive on the MQTT state bus as JSON envelopes carrying the old and
// new state of one entity. The package decodes the envelope, decides whether
// the event is worth publishing (states of unknown/unavailable entities are
// suppressed), and serializes the new state once so the dispatcher can hand
// the same payload to every matching Kafka topic.
//
// Timestamps are RFC 3339 on the wire in both directions, matching Home
// Assistant's ISO 8601 encoding.
package event
