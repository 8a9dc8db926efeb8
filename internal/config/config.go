package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// League configures discovery of and connection to the League client.
type League struct {
	// InstallPath overrides automatic discovery of the League install
	// directory (the lockfile lives directly underneath it).
	InstallPath string `toml:"install_path"`
	// Topic is the LCU event topic subscribed at startup.
	Topic                 string `toml:"topic"`
	ConnectAttempts       int    `toml:"connect_attempts"`
	ConnectBackoffSeconds int    `toml:"connect_backoff_seconds"`
}

// OBS configures the obs-websocket control endpoint.
type OBS struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	Password              string `toml:"password"`
	ProfileName           string `toml:"profile_name"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Recording configures the phase-driven recording behavior.
type Recording struct {
	// IgnoredQueueTypes lists matchmaking queues that never trigger
	// recording actions (phase tracking still runs).
	IgnoredQueueTypes   []string `toml:"ignored_queue_types"`
	FilenamePrefix      string   `toml:"filename_prefix"`
	ReadyTimeoutSeconds int      `toml:"ready_timeout_seconds"`
	StartSettleSeconds  int      `toml:"start_settle_seconds"`
	StopSettleSeconds   int      `toml:"stop_settle_seconds"`
}

// Notifications configures ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Recording      bool   `toml:"recording"`
	Errors         bool   `toml:"errors"`
}

// Logging configures log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// Config is the root configuration document.
type Config struct {
	League        League        `toml:"league"`
	OBS           OBS           `toml:"obs"`
	Recording     Recording     `toml:"recording"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Paths         Paths         `toml:"paths"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "riftcap", "config.toml"), nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		trimmed = defaultPath
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	switch {
	case err == nil:
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	default:
		return "", false, fmt.Errorf("stat config: %w", err)
	}
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// SocketPath returns the IPC socket location for this configuration.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "riftcap.sock")
}

// LibraryDBPath returns the capture-history database location.
func (c *Config) LibraryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// LockfilePath returns the League client lockfile location, or empty when no
// install path is known.
func (c *Config) LockfilePath() string {
	if c.League.InstallPath == "" {
		return ""
	}
	return filepath.Join(c.League.InstallPath, "lockfile")
}

// IgnoredQueues returns the ignored queue types as a set.
func (c *Config) IgnoredQueues() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Recording.IgnoredQueueTypes))
	for _, q := range c.Recording.IgnoredQueueTypes {
		q = strings.TrimSpace(q)
		if q != "" {
			set[q] = struct{}{}
		}
	}
	return set
}

// EnsureDirectories creates the directories the agent writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.League.InstallPath, err = expandPath(c.League.InstallPath); err != nil {
		return err
	}
	c.League.Topic = strings.TrimSpace(c.League.Topic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.OBS.Host = strings.TrimSpace(c.OBS.Host)
	c.OBS.ProfileName = strings.TrimSpace(c.OBS.ProfileName)
	c.Recording.FilenamePrefix = strings.TrimSpace(c.Recording.FilenamePrefix)
	return nil
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", pathValue, err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
