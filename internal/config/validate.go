package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLeague(); err != nil {
		return err
	}
	if err := c.validateOBS(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLeague() error {
	if c.League.Topic == "" {
		return errors.New("league.topic must be set")
	}
	if c.League.ConnectAttempts < 1 {
		return errors.New("league.connect_attempts must be at least 1")
	}
	if c.League.ConnectBackoffSeconds < 0 {
		return errors.New("league.connect_backoff_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateOBS() error {
	if c.OBS.Host == "" {
		return errors.New("obs.host must be set")
	}
	if c.OBS.Port <= 0 || c.OBS.Port > 65535 {
		return fmt.Errorf("obs.port %d is out of range", c.OBS.Port)
	}
	if c.OBS.RequestTimeoutSeconds < 1 {
		return errors.New("obs.request_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateRecording() error {
	if c.Recording.FilenamePrefix == "" {
		return errors.New("recording.filename_prefix must be set")
	}
	if c.Recording.ReadyTimeoutSeconds < 1 {
		return errors.New("recording.ready_timeout_seconds must be at least 1")
	}
	if c.Recording.StartSettleSeconds < 0 || c.Recording.StopSettleSeconds < 0 {
		return errors.New("recording settle times must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console or json)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}
