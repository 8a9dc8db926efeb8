package gameflow

import "reflect"

// Cache holds the most recent session document and the last observed phase.
// It is owned by a single Monitor and mutated only on the receive path, so it
// carries no locking.
type Cache struct {
	session       any
	previousPhase string
}

// SessionChanged reports whether next differs structurally from the cached
// document. An empty cache always reports a change.
func (c *Cache) SessionChanged(next any) bool {
	if c.session == nil {
		return true
	}
	return !reflect.DeepEqual(next, c.session)
}

// StoreSession replaces the cached session document.
func (c *Cache) StoreSession(session any) {
	c.session = session
}

// PreviousPhase returns the phase recorded by the last StorePhase call.
func (c *Cache) PreviousPhase() string {
	return c.previousPhase
}

// StorePhase records the phase for the next transition comparison.
func (c *Cache) StorePhase(phase string) {
	c.previousPhase = phase
}
