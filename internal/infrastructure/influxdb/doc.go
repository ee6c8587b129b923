// Package influxdb records dispatch metrics for statebridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring. The
// bridge writes one measurement, "dispatch", tagged by topic, counting
// evaluations, publishes and publish errors.
//
// The integration is optional; when disabled in configuration the rest of
// the bridge runs without it. Write errors arrive asynchronously via the
// SetOnError callback.
package influxdb
