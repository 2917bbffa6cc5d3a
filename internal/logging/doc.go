// Package logging builds slog loggers for clipflow.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for log files and non-TTY environments. Attribute helpers and
// shared field names keep component, channel, and clip identifiers consistent
// across every subsystem's log lines.
package logging
