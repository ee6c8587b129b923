package filter

import (
	"fmt"
	"strings"
)

// Spec describes the four rule lists of a filter before compilation.
// It mirrors the filter block of config.yaml.
type Spec struct {
	IncludeEntities []string
	IncludeDomains  []string
	ExcludeEntities []string
	ExcludeDomains  []string
}

// Empty reports whether the spec contains no rules at all.
func (s Spec) Empty() bool {
	return len(s.IncludeEntities) == 0 &&
		len(s.IncludeDomains) == 0 &&
		len(s.ExcludeEntities) == 0 &&
		len(s.ExcludeDomains) == 0
}

// Filter is an immutable compiled filter specification.
//
// A Filter is built once at startup and shared read-only across concurrent
// dispatch operations; all methods are safe for concurrent use.
type Filter struct {
	includeEntities ruleSet
	includeDomains  ruleSet
	excludeEntities ruleSet
	excludeDomains  ruleSet
}

// New compiles a Spec into a Filter.
//
// Entity rules may be exact ids or glob patterns; domain rules may be exact
// domain names or glob patterns. Compilation fails on malformed patterns so
// configuration errors surface at startup, never during dispatch.
//
// Parameters:
//   - spec: The raw rule lists from configuration
//
// Returns:
//   - *Filter: Compiled filter ready for evaluation
//   - error: If any rule fails to compile
func New(spec Spec) (*Filter, error) {
	f := &Filter{}
	var err error

	if f.includeEntities, err = compileRuleSet(spec.IncludeEntities); err != nil {
		return nil, fmt.Errorf("compiling include_entities: %w", err)
	}
	if f.includeDomains, err = compileRuleSet(spec.IncludeDomains); err != nil {
		return nil, fmt.Errorf("compiling include_domains: %w", err)
	}
	if f.excludeEntities, err = compileRuleSet(spec.ExcludeEntities); err != nil {
		return nil, fmt.Errorf("compiling exclude_entities: %w", err)
	}
	if f.excludeDomains, err = compileRuleSet(spec.ExcludeDomains); err != nil {
		return nil, fmt.Errorf("compiling exclude_domains: %w", err)
	}

	return f, nil
}

// MatchAll returns a filter with no rules, which passes every entity.
// This is the effective filter for topics with neither their own filter nor
// a global fallback.
func MatchAll() *Filter {
	return &Filter{}
}

// Domain extracts the domain from an entity id: the substring before the
// first '.' separator. An id without a separator has no domain and the
// empty string is returned.
//
// Example:
//
//	filter.Domain("sensor.sun_next_dusk") // "sensor"
//	filter.Domain("malformed")            // ""
func Domain(entityID string) string {
	domain, _, found := strings.Cut(entityID, ".")
	if !found {
		return ""
	}
	return domain
}

// Matches evaluates an entity id against the compiled rules.
//
// The function is pure, total and deterministic: identical inputs always
// yield identical output, and no input is an error. An entity id without a
// domain separator never matches domain rules but is still evaluated
// verbatim against entity rules.
//
// Parameters:
//   - entityID: Domain-qualified entity id (e.g. "sensor.sun_next_dusk")
//
// Returns:
//   - bool: true if the entity's events pass this filter
func (f *Filter) Matches(entityID string) bool {
	// 1. Explicit entity exclusion always wins.
	if f.excludeEntities.matches(entityID) {
		return false
	}

	domain := Domain(entityID)
	included := f.includeEntities.matches(entityID)

	// 2. Domain exclusion, unless the entity is explicitly included.
	if domain != "" && f.excludeDomains.matches(domain) && !included {
		return false
	}

	// 3. Explicit entity inclusion.
	if included {
		return true
	}

	// 4. Domain inclusion.
	if domain != "" && f.includeDomains.matches(domain) {
		return true
	}

	// 5. Any include rule makes the filter default-deny.
	if !f.includeEntities.empty() || !f.includeDomains.empty() {
		return false
	}

	// 6. Exclusion-only (or empty) filters default-allow.
	return true
}

// Empty reports whether the filter has no rules, i.e. passes everything.
func (f *Filter) Empty() bool {
	return f.includeEntities.empty() &&
		f.includeDomains.empty() &&
		f.excludeEntities.empty() &&
		f.excludeDomains.empty()
}
