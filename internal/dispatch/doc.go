// Package dispatch fans state-change events out to Kafka topics.
//
// A Dispatcher is built once at startup from the configured topic list, the
// optional global filter, and a Publisher collaborator. For every inbound
// event it serializes the payload exactly once, evaluates each topic's
// effective filter independently, and hands the payload to the Publisher for
// every topic that matches. One event may reach zero, one, or many topics.
//
// # Effective filters
//
// Each topic's effective filter is resolved at construction: the topic's own
// filter if configured, else the global filter if configured, else a filter
// that matches everything. A topic's explicit filter fully replaces the
// global one; the two are never merged.
//
// # Failure isolation
//
// A publish failure on one topic never prevents evaluation or publish
// attempts on the remaining topics, and never halts the event stream. The
// Dispatcher logs each failure, records it in the failure journal, and moves
// on. Retry and delivery acknowledgment are the Publisher's concern.
//
// # Concurrency
//
// The Dispatcher holds no mutable state after construction and is safe to
// call from any number of goroutines. Per-topic ordering of publishes is
// whatever the Publisher provides.
package dispatch
