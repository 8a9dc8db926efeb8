package testsupport

import (
	"context"
	"sync"
)

// FakeController is an in-memory recording device for monitor and daemon
// tests. The zero value is not usable; construct with NewFakeController.
type FakeController struct {
	ready chan struct{}

	mu          sync.Mutex
	recording   bool
	failStart   bool
	failStop    bool
	lastPath    string
	startCalls  int
	stopCalls   int
	renames     []string
	disconnects int
}

// NewFakeController returns a controller that is immediately ready.
func NewFakeController() *FakeController {
	ready := make(chan struct{})
	close(ready)
	return &FakeController{ready: ready}
}

// NewUnreadyController returns a controller whose readiness never signals.
func NewUnreadyController() *FakeController {
	return &FakeController{ready: make(chan struct{})}
}

func (f *FakeController) Ready() <-chan struct{} { return f.ready }

func (f *FakeController) StartRecording(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.failStart {
		return false
	}
	f.recording = true
	return true
}

func (f *FakeController) StopRecording(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	if f.failStop {
		return false
	}
	f.recording = false
	return true
}

func (f *FakeController) IsRecording(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

func (f *FakeController) LastRecordingPath(ctx context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath, f.lastPath != ""
}

func (f *FakeController) RenameLastRecording(ctx context.Context, newPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames = append(f.renames, newPath)
	f.lastPath = newPath
	return true
}

func (f *FakeController) Disconnect(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.recording = false
}

// SetRecording forces the reported device state.
func (f *FakeController) SetRecording(recording bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = recording
}

// SetLastPath sets the path returned by LastRecordingPath.
func (f *FakeController) SetLastPath(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPath = path
}

// FailStart makes subsequent start commands report failure.
func (f *FakeController) FailStart(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStart = fail
}

// StartCalls returns how many start commands were issued.
func (f *FakeController) StartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

// StopCalls returns how many stop commands were issued.
func (f *FakeController) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// Renames returns every rename target requested so far.
func (f *FakeController) Renames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.renames))
	copy(out, f.renames)
	return out
}

// Disconnects returns how many disconnects were requested.
func (f *FakeController) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}
