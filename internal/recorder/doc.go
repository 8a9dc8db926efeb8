// Package recorder adapts the obs-websocket client to the capability
// surface the gameflow monitor drives. Every method converts device errors
// into boolean results so the event loop never sees a raw failure, and
// initialization runs in the background behind a readiness signal.
package recorder
