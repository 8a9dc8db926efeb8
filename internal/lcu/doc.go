// Package lcu maintains the connection to the League client's local event
// feed: credential discovery (process table, then lockfile), the secured
// WebSocket session with retry and transparent reconnect, frame decoding,
// and substring-based topic dispatch to registered handlers.
package lcu
