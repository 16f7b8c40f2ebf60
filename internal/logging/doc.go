// Package logging assembles structured slog loggers and formatting helpers used
// across parlacorpus.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized field keys so the loader, extractor, and
// CLI tag their log lines consistently (component, event_type, file, build_id).
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the tool.
package logging
