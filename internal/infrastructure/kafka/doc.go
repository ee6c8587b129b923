// Package kafka provides the Kafka producer for statebridge.
//
// It wraps segmentio/kafka-go with connection management, health checks, and
// the Publish contract the dispatcher expects. One writer serves every
// configured topic; the topic is set per message.
//
// # Delivery
//
// Writes are synchronous with RequireAll acknowledgment, gzip compression,
// and the writer's own bounded retry (max_attempts). Messages are keyed by
// entity id, so all events for one entity land on one partition and keep
// their relative order. The dispatcher treats a returned error as a failed
// delivery for that topic only.
//
// # Security
//
// security_protocol selects PLAINTEXT or SASL_SSL. SASL_SSL uses PLAIN
// authentication over TLS 1.2+, matching the broker configurations this
// bridge is deployed against.
package kafka
