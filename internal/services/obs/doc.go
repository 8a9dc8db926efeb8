// Package obs implements a minimal obs-websocket v5 client covering the
// recording surface: identify handshake with optional challenge auth,
// correlated request/response exchange, and tracking of the record output
// path from RecordStateChanged events.
package obs
