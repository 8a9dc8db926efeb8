// Package notifications pushes capture lifecycle notifications through ntfy.
// When no topic is configured the service is a noop, so callers never need
// to gate on configuration.
package notifications
