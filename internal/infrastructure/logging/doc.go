// Package logging provides structured logging for statebridge.
//
// It wraps log/slog with level parsing from configuration, JSON/text output
// selection, and default service/version attributes on every record. Use
// With to derive component-scoped loggers.
package logging
