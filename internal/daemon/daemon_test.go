package daemon_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"riftcap/internal/daemon"
	"riftcap/internal/gameflow"
	"riftcap/internal/lcu"
	"riftcap/internal/logging"
	"riftcap/internal/notifications"
	"riftcap/internal/testsupport"
)

type fakeSource struct {
	mu         sync.Mutex
	connectErr error
	topics     []string
	connects   int
	closes     int
	listening  chan struct{}
	release    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		listening: make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (s *fakeSource) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return s.connectErr
}

func (s *fakeSource) Subscribe(topic string, handler lcu.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	return nil
}

func (s *fakeSource) Listen(ctx context.Context) error {
	close(s.listening)
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes == 0 {
		close(s.release)
	}
	s.closes++
	return nil
}

func (s *fakeSource) subscribedTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.topics))
	copy(out, s.topics)
	return out
}

type fakeInitializer struct {
	done chan struct{}
}

func (f *fakeInitializer) Init(ctx context.Context) { close(f.done) }

func newDaemon(t *testing.T, source *fakeSource) (*daemon.Daemon, *fakeInitializer) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	monitor := gameflow.NewMonitor(testsupport.NewFakeController(), logging.NewNop())
	init := &fakeInitializer{done: make(chan struct{})}
	d, err := daemon.New(cfg, source, monitor, init, nil, notifications.NewService(cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, init
}

func TestStartConnectsSubscribesAndListens(t *testing.T) {
	source := newFakeSource()
	d, init := newDaemon(t, source)
	defer d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-source.listening:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never started")
	}
	select {
	case <-init.done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder initialization never started")
	}

	topics := source.subscribedTopics()
	if len(topics) != 1 || topics[0] != "lol-gameflow_v1_session" {
		t.Fatalf("subscribed topics = %v", topics)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}
}

func TestStartFailsWhenConnectFails(t *testing.T) {
	source := newFakeSource()
	source.connectErr = errors.New("retries exhausted")
	d, _ := newDaemon(t, source)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the initial connect fails")
	}
	if d.Running() {
		t.Fatal("daemon must not report running after failed start")
	}
	// The lock was released, so a retry can succeed.
	source.connectErr = nil
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	d.Stop()
}

func TestStartWhileRunningFails(t *testing.T) {
	source := newFakeSource()
	d, _ := newDaemon(t, source)
	defer d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}
}

func TestStopClosesSourceAndIsIdempotent(t *testing.T) {
	source := newFakeSource()
	d, _ := newDaemon(t, source)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	d.Stop()

	source.mu.Lock()
	defer source.mu.Unlock()
	if source.closes != 1 {
		t.Fatalf("source closed %d times, want 1", source.closes)
	}
	if d.Running() {
		t.Fatal("daemon still reports running after stop")
	}
}

func TestStatusReflectsMonitor(t *testing.T) {
	source := newFakeSource()
	d, _ := newDaemon(t, source)
	defer d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("status should report running")
	}
	if status.Topic != "lol-gameflow_v1_session" {
		t.Fatalf("topic = %q", status.Topic)
	}
	if status.PID <= 0 {
		t.Fatalf("pid = %d", status.PID)
	}
	if status.LockFilePath == "" || status.LibraryDBPath == "" {
		t.Fatalf("missing paths in status: %+v", status)
	}
}

func TestRecordingsWithoutLibrary(t *testing.T) {
	source := newFakeSource()
	d, _ := newDaemon(t, source)
	if _, err := d.Recordings(context.Background(), 10); err == nil {
		t.Fatal("expected error without capture history")
	}
}
