package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"riftcap/internal/config"
	"riftcap/internal/gameflow"
	"riftcap/internal/lcu"
	"riftcap/internal/library"
	"riftcap/internal/logging"
	"riftcap/internal/notifications"
)

// EventSource is the slice of the LCU client the daemon drives.
type EventSource interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, handler lcu.Handler) error
	Listen(ctx context.Context) error
	Close() error
}

// RecorderInitializer runs the recording device's background initialization.
type RecorderInitializer interface {
	Init(ctx context.Context)
}

// CaptureLister reads the capture history for the recordings command.
type CaptureLister interface {
	Recent(ctx context.Context, limit int) ([]library.Capture, error)
}

// Daemon owns the agent lifecycle: lock, connect, subscribe, listen, and the
// teardown sequence on stop.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   EventSource
	monitor  *gameflow.Monitor
	recorder RecorderInitializer
	captures CaptureLister
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	LockFilePath  string
	LibraryDBPath string
	Topic         string
	Monitor       gameflow.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, source EventSource, monitor *gameflow.Monitor, rec RecorderInitializer, captures CaptureLister, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || source == nil || monitor == nil {
		return nil, errors.New("daemon requires config, event source, and monitor")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "riftcapd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		source:   source,
		monitor:  monitor,
		recorder: rec,
		captures: captures,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, kicks off device initialization in the
// background, and connects and subscribes to the event stream. The initial
// connect is the one fatal path: if it exhausts its retries the daemon does
// not start.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another riftcap daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.recorder != nil {
		go d.recorder.Init(runCtx)
	}

	if err := d.source.Connect(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("connect to event stream: %w", err)
	}
	if err := d.source.Subscribe(d.cfg.League.Topic, d.monitor.HandleSession); err != nil {
		_ = d.source.Close()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("subscribe to %s: %w", d.cfg.League.Topic, err)
	}

	d.running.Store(true)
	d.startedAt = time.Now()

	go func() {
		if err := d.source.Listen(runCtx); err != nil && d.running.Load() {
			d.logger.Error("event listener terminated", logging.Error(err))
			if notifyErr := d.notifier.NotifyError(runCtx, err, "event stream"); notifyErr != nil {
				d.logger.Warn("failed to send error notification", logging.Error(notifyErr))
			}
		}
	}()

	d.logger.Info("riftcap daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldTopic, d.cfg.League.Topic))
	return nil
}

// Stop runs the teardown sequence: flip the running flag, close the event
// stream, clean up the monitor, release the lock. It never fails and is safe
// to call more than once.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}

	if err := d.source.Close(); err != nil {
		d.logger.Warn("error closing event stream", logging.Error(err))
	}
	// The cleanup uses a fresh context: shutdown device calls must not be
	// cut short by the canceled run context.
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.monitor.Cleanup(cleanupCtx)

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("riftcap daemon stopped")
}

// Running reports whether the daemon has started and not yet stopped.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns runtime information for the status command.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		LockFilePath:  d.lockPath,
		LibraryDBPath: d.cfg.LibraryDBPath(),
		Topic:         d.cfg.League.Topic,
		Monitor:       d.monitor.Status(),
	}
}

// Recordings lists recent captures, newest first.
func (d *Daemon) Recordings(ctx context.Context, limit int) ([]library.Capture, error) {
	if d.captures == nil {
		return nil, errors.New("capture history is not available")
	}
	return d.captures.Recent(ctx, limit)
}

// TestNotification sends a test notification through the configured sink.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), nil
	}
	return true, "test notification sent", nil
}
