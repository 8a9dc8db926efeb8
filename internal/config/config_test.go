package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.League.Topic != "lol-gameflow_v1_session" {
		t.Fatalf("unexpected default topic %q", cfg.League.Topic)
	}
	queues := cfg.IgnoredQueues()
	for _, q := range []string{"TUTORIAL_MODULE_1", "TUTORIAL_MODULE_2", "TUTORIAL_MODULE_3", "PRACTICE_TOOL"} {
		if _, ok := queues[q]; !ok {
			t.Errorf("missing default ignored queue %s", q)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.OBS.Port != 4455 {
		t.Fatalf("expected default OBS port, got %d", cfg.OBS.Port)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[league]
topic = "lol-champ-select_v1_session"
connect_attempts = 5

[obs]
password = "hunter2"
port = 4460

[logging]
level = "DEBUG"

[paths]
log_dir = "` + filepath.Join(dir, "logs") + `"
data_dir = "` + filepath.Join(dir, "data") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected file to exist")
	}
	if cfg.League.Topic != "lol-champ-select_v1_session" {
		t.Fatalf("topic override lost: %q", cfg.League.Topic)
	}
	if cfg.League.ConnectAttempts != 5 {
		t.Fatalf("connect_attempts override lost: %d", cfg.League.ConnectAttempts)
	}
	if cfg.OBS.Password != "hunter2" || cfg.OBS.Port != 4460 {
		t.Fatalf("obs overrides lost: %+v", cfg.OBS)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level should be lowercased, got %q", cfg.Logging.Level)
	}
	if cfg.SocketPath() != filepath.Join(dir, "logs", "riftcap.sock") {
		t.Fatalf("unexpected socket path %q", cfg.SocketPath())
	}
	if cfg.LibraryDBPath() != filepath.Join(dir, "data", "library.db") {
		t.Fatalf("unexpected library path %q", cfg.LibraryDBPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty topic", func(c *Config) { c.League.Topic = "" }, "league.topic"},
		{"zero attempts", func(c *Config) { c.League.ConnectAttempts = 0 }, "connect_attempts"},
		{"bad port", func(c *Config) { c.OBS.Port = 0 }, "obs.port"},
		{"bad format", func(c *Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"no log dir", func(c *Config) { c.Paths.LogDir = "" }, "log_dir"},
		{"no prefix", func(c *Config) { c.Recording.FilenamePrefix = "" }, "filename_prefix"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q missing %q", err, tc.want)
			}
		})
	}
}

func TestLockfilePath(t *testing.T) {
	cfg := Default()
	if cfg.LockfilePath() != "" {
		t.Fatal("lockfile path should be empty without install path")
	}
	cfg.League.InstallPath = "/games/league"
	if got := cfg.LockfilePath(); got != filepath.Join("/games/league", "lockfile") {
		t.Fatalf("unexpected lockfile path %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[obs]") {
		t.Fatal("sample should contain an [obs] section")
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("second WriteSample should refuse to overwrite")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := expandPath("~/x/y")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("expandPath(~/x/y) = %q", got)
	}
}
