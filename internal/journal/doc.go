// Package journal persists failed Kafka publish attempts.
//
// When the dispatcher cannot deliver an event to a topic, the payload and
// failure cause are written to a local SQLite table. The journal exists for
// post-hoc inspection and manual replay; the bridge itself never re-reads
// entries on the hot path. Entries are pruned by age.
package journal
