// Package logging assembles the slog loggers used by the gr-downloader
// commands.
//
// User-facing progress is rendered by the CLI and TUI themselves; this
// package carries the diagnostic stream (request URLs, paths, timings) that
// is enabled with --verbose or the log_level setting.
package logging
