// Package logging assembles structured slog loggers and formatting helpers used
// across wheelhouse.
//
// It owns the console/JSON handlers, rotates file output through lumberjack,
// and exposes context helpers so every line of a bootstrap run carries the
// run's correlation ID. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
