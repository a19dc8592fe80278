// Package logging assembles structured slog loggers and formatting helpers used
// across doiupdate.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so batch runs can tag every log
// line with their run identifier. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
