package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRemote() error {
	if c.Remote.Enabled && c.Remote.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("remote.token is required when remote.enabled is true. Set ASSRT_TOKEN env var or edit %s (create with 'subplay config init')", defaultPath)
	}
	if c.Remote.ConnectTimeoutSeconds <= 0 {
		return errors.New("remote.connect_timeout_seconds must be positive")
	}
	if c.Remote.ReadTimeoutSeconds <= 0 {
		return errors.New("remote.read_timeout_seconds must be positive")
	}
	if c.Remote.RequestTimeoutSeconds <= 0 {
		return errors.New("remote.request_timeout_seconds must be positive")
	}
	if c.Remote.MinIntervalMillis < 0 {
		return errors.New("remote.min_interval_millis must be >= 0")
	}
	if c.Remote.ResultLimit < 1 || c.Remote.ResultLimit > maxResultLimit {
		return fmt.Errorf("remote.result_limit must be between 1 and %d", maxResultLimit)
	}
	if c.Remote.MaxCandidates < 1 {
		return errors.New("remote.max_candidates must be at least 1")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.Charset == "" {
		return nil
	}
	if _, err := htmlindex.Get(c.Subtitles.Charset); err != nil {
		return fmt.Errorf("subtitles.charset: unknown encoding %q", c.Subtitles.Charset)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.SyncIntervalMillis <= 0 {
		return errors.New("playback.sync_interval_millis must be positive")
	}
	if c.Playback.DelayStepMillis <= 0 {
		return errors.New("playback.delay_step_millis must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
