// Package logging assembles structured slog loggers and formatting helpers
// used across Hopper.
//
// It owns the configurable pretty/JSON handlers, centralizes level and output
// plumbing (stdout plus an append-only log file), and exposes context-aware
// helpers so pipeline code can automatically tag log lines with run IDs,
// stage names, and correlation IDs. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the
// rest of the system.
package logging
