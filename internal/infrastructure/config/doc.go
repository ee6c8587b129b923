// Package config loads and validates statebridge configuration.
//
// Configuration comes from three layers, later layers overriding earlier
// ones:
//
//  1. Hardcoded defaults
//  2. The YAML configuration file
//  3. STATEBRIDGE_* environment variables (for secrets and deploy-specific
//     values such as broker addresses)
//
// YAML decoding is strict: unknown fields fail Load. Topic and filter
// descriptors are carried as raw rule lists here; the filter package
// compiles them. A nil *FilterConfig is meaningful — it marks an absent
// filter that inherits the global one, as opposed to an empty filter that
// matches everything.
//
// Configuration is immutable after Load: the process must be restarted to
// pick up changes.
package config
