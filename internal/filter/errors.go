package filter

import "errors"

// Sentinel errors for filter compilation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPattern is returned when a rule is empty or contains a
	// glob pattern with invalid syntax.
	ErrInvalidPattern = errors.New("filter: invalid pattern")
)
