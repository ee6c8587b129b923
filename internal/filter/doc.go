// Package filter implements entity filtering for statebridge.
//
// A filter is an immutable bundle of include/exclude rules compiled once at
// startup from configuration. Rules name exact entity ids
// (sensor.sun_next_dusk), bare domains (sensor), or glob patterns
// (sensor.door_*). Evaluation is a pure function over the compiled rules and
// is safe for concurrent use.
//
// # Precedence
//
// Rule categories are checked in a fixed order; the first category that
// produces a decision wins:
//
//  1. Entity excluded by exclude_entities → rejected.
//  2. Domain excluded by exclude_domains (unless the entity is explicitly
//     included by include_entities) → rejected.
//  3. Entity included by include_entities → passed.
//  4. Domain included by include_domains → passed.
//  5. Any include rule configured → rejected (allow-list semantics).
//  6. No rule matched → passed.
//
// Within one category rule order is irrelevant; the rules form a set.
//
// # Absent vs empty
//
// An absent filter and an empty filter are different things at the
// configuration level: a topic without a filter inherits the global filter,
// while a topic with an explicitly empty filter matches every entity. This
// distinction is resolved by the dispatch package; here an empty Spec simply
// compiles to a filter that passes everything.
package filter
