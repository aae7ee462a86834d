// Package logging assembles structured slog loggers and formatting helpers used
// across reelpost services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (including rotating log files), and exposes context-aware helpers so
// pipeline code can automatically tag log lines with movie keys, update IDs,
// and correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
