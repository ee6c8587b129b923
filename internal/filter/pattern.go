package filter

import (
	"fmt"
	"path"
	"strings"
)

// matcher reports whether a candidate string satisfies a single rule.
// Exact-string and glob rules share this one evaluation path.
type matcher interface {
	matches(s string) bool
}

// literal matches by exact, case-sensitive string equality.
type literal string

func (l literal) matches(s string) bool {
	return string(l) == s
}

// glob matches using shell-style wildcards (* and ?).
// Entity ids never contain '/', so path.Match semantics are exact here.
type glob string

func (g glob) matches(s string) bool {
	ok, err := path.Match(string(g), s)
	return err == nil && ok
}

// globMetachars are the characters that promote a rule from an exact string
// to a glob pattern.
const globMetachars = "*?["

// ruleSet is a compiled, immutable set of rules. Literal rules are held in a
// map for O(1) lookup; pattern rules are scanned linearly.
type ruleSet struct {
	literals map[string]struct{}
	patterns []matcher
}

// compileRuleSet compiles raw rule strings into a ruleSet.
//
// Returns an error for empty rules or glob patterns with invalid syntax
// (for example an unterminated character class), so malformed configuration
// is caught at startup rather than silently matching nothing.
func compileRuleSet(rules []string) (ruleSet, error) {
	rs := ruleSet{}
	for _, rule := range rules {
		if rule == "" {
			return ruleSet{}, fmt.Errorf("%w: empty rule", ErrInvalidPattern)
		}
		if !strings.ContainsAny(rule, globMetachars) {
			if rs.literals == nil {
				rs.literals = make(map[string]struct{})
			}
			rs.literals[rule] = struct{}{}
			continue
		}
		// Validate glob syntax once at compile time. path.Match only
		// reports ErrBadPattern; the candidate string is irrelevant.
		if _, err := path.Match(rule, ""); err != nil {
			return ruleSet{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, rule, err)
		}
		rs.patterns = append(rs.patterns, glob(rule))
	}
	return rs, nil
}

// matches reports whether s satisfies any rule in the set.
// An empty set matches nothing.
func (rs ruleSet) matches(s string) bool {
	if _, ok := rs.literals[s]; ok {
		return true
	}
	for _, p := range rs.patterns {
		if p.matches(s) {
			return true
		}
	}
	return false
}

// empty reports whether the set contains no rules.
func (rs ruleSet) empty() bool {
	return len(rs.literals) == 0 && len(rs.patterns) == 0
}
