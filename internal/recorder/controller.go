package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"riftcap/internal/logging"
	"riftcap/internal/services/obs"
)

// Device is the slice of the OBS client the controller drives.
type Device interface {
	Connect(ctx context.Context) error
	SetProfile(ctx context.Context, name string) error
	StartRecord(ctx context.Context) error
	StopRecord(ctx context.Context) (string, error)
	RecordActive(ctx context.Context) (bool, error)
	LastOutputPath() (string, bool)
	Connected() bool
	Close() error
}

var _ Device = (*obs.Client)(nil)

// Controller wraps the recording device behind non-failing calls. Init runs
// once in the background; Ready is closed when it finishes, successful or
// not, so a start action can bound its wait.
type Controller struct {
	device  Device
	profile string
	logger  *slog.Logger

	ready    chan struct{}
	initOnce sync.Once

	mu       sync.Mutex
	lastPath string
}

// New builds a controller. profile may be empty to leave the device profile
// untouched.
func New(device Device, profile string, logger *slog.Logger) *Controller {
	return &Controller{
		device:  device,
		profile: profile,
		logger:  logging.WithComponent(logger, "recorder"),
		ready:   make(chan struct{}),
	}
}

// Init connects the device and applies the profile. It is safe to call from
// a goroutine and runs at most once.
func (c *Controller) Init(ctx context.Context) {
	c.initOnce.Do(func() {
		defer close(c.ready)
		if err := c.device.Connect(ctx); err != nil {
			c.logger.Error("recording device connection failed", logging.Error(err))
			return
		}
		c.logger.Info("recording device connected")
		if c.profile == "" {
			return
		}
		if err := c.device.SetProfile(ctx, c.profile); err != nil {
			c.logger.Warn("failed to set device profile",
				logging.String("profile", c.profile), logging.Error(err))
			return
		}
		c.logger.Info("device profile set", logging.String("profile", c.profile))
	})
}

// Ready is closed once Init has finished.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// StartRecording issues a start command.
func (c *Controller) StartRecording(ctx context.Context) bool {
	if err := c.device.StartRecord(ctx); err != nil {
		c.logger.Error("start recording failed", logging.Error(err))
		return false
	}
	return true
}

// StopRecording issues a stop command, remembering the reported output path.
func (c *Controller) StopRecording(ctx context.Context) bool {
	path, err := c.device.StopRecord(ctx)
	if err != nil {
		c.logger.Error("stop recording failed", logging.Error(err))
		return false
	}
	if path != "" {
		c.mu.Lock()
		c.lastPath = path
		c.mu.Unlock()
	}
	return true
}

// IsRecording queries the device's record output state. Any failure reads as
// not recording.
func (c *Controller) IsRecording(ctx context.Context) bool {
	active, err := c.device.RecordActive(ctx)
	if err != nil {
		c.logger.Debug("record status query failed", logging.Error(err))
		return false
	}
	return active
}

// LastRecordingPath returns the most recent capture file path, preferring
// the stop response over event tracking.
func (c *Controller) LastRecordingPath(ctx context.Context) (string, bool) {
	c.mu.Lock()
	path := c.lastPath
	c.mu.Unlock()
	if path != "" {
		return path, true
	}
	return c.device.LastOutputPath()
}

// RenameLastRecording moves the last capture file to newPath. The original
// extension is kept when the target omits or changes it.
func (c *Controller) RenameLastRecording(ctx context.Context, newPath string) bool {
	source, ok := c.LastRecordingPath(ctx)
	if !ok {
		c.logger.Error("no capture path available to rename")
		return false
	}
	if _, err := os.Stat(source); err != nil {
		c.logger.Error("capture file not found", logging.String("path", source), logging.Error(err))
		return false
	}

	target := withSourceExt(newPath, source)
	if err := moveFile(source, target); err != nil {
		c.logger.Error("failed to move capture",
			logging.String("from", source), logging.String("to", target), logging.Error(err))
		return false
	}
	c.mu.Lock()
	c.lastPath = target
	c.mu.Unlock()
	c.logger.Info("capture moved", logging.String("path", target))
	return true
}

// Disconnect stops any active recording and closes the device connection.
// Errors are swallowed; teardown must complete.
func (c *Controller) Disconnect(ctx context.Context) {
	if c.device.Connected() {
		if active, err := c.device.RecordActive(ctx); err == nil && active {
			if _, err := c.device.StopRecord(ctx); err != nil {
				c.logger.Debug("failed to stop recording during disconnect", logging.Error(err))
			}
		}
	}
	if err := c.device.Close(); err != nil {
		c.logger.Debug("error closing device connection", logging.Error(err))
	}
}

// withSourceExt forces target to carry the source file's extension.
func withSourceExt(target, source string) string {
	sourceExt := filepath.Ext(source)
	targetExt := filepath.Ext(target)
	if targetExt == "" {
		return target + sourceExt
	}
	if !strings.EqualFold(targetExt, sourceExt) {
		return strings.TrimSuffix(target, targetExt) + sourceExt
	}
	return target
}

// moveFile renames source to target, falling back to copy-and-remove when
// the rename crosses filesystems.
func moveFile(source, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	err := os.Rename(source, target)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := copyFileContents(source, target); err != nil {
		return err
	}
	return os.Remove(source)
}

func copyFileContents(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
