package gameflow

import "sync"

// syncedStatus publishes monitor snapshots to other goroutines (the status
// command) without locking the event path's own state.
type syncedStatus struct {
	mu sync.Mutex
	s  Status
}

func (ss *syncedStatus) set(s Status) {
	ss.mu.Lock()
	ss.s = s
	ss.mu.Unlock()
}

func (ss *syncedStatus) get() Status {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s
}
