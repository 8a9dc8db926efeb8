// Package daemon ties the event stream, the phase monitor, and the recording
// controller into a single lifecycle with flock-based locking to prevent
// multiple concurrent agent instances.
package daemon
