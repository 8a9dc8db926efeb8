// Package logging builds slog loggers for the agent: a human-oriented
// console handler, a JSON handler for file output, standardized attribute
// keys, and a no-op logger for tests.
package logging
