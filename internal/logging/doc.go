// Package logging assembles the structured slog loggers used across the
// intercept daemon and CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and provides a no-op logger for tests and wiring code
// that cannot fail. Prefer these constructors over hand-rolled slog setup so
// every component emits lines with the same shape.
package logging
