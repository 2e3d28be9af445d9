// Package logging assembles structured slog loggers and formatting helpers used
// across cubby components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so run code can automatically
// tag log lines with run IDs, components, and triggers. The package also
// provides a no-op logger for tests, a log-retention sweeper, and a StreamHub
// ring buffer that lets the CLI follow daemon logs over IPC.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
