package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRemote()
	c.normalizeSubtitles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SessionDB) == "" {
		c.Paths.SessionDB = defaultSessionDB
	}
	if c.Paths.SessionDB, err = expandPath(c.Paths.SessionDB); err != nil {
		return fmt.Errorf("paths.session_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeRemote() {
	c.Remote.Token = strings.TrimSpace(c.Remote.Token)
	if c.Remote.Token == "" {
		if value, ok := os.LookupEnv("ASSRT_TOKEN"); ok {
			c.Remote.Token = strings.TrimSpace(value)
		}
	}
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	c.Remote.UserAgent = strings.TrimSpace(c.Remote.UserAgent)
	if c.Remote.UserAgent == "" {
		c.Remote.UserAgent = defaultRemoteUserAgent
	}
	if c.Remote.ResultLimit == 0 {
		c.Remote.ResultLimit = defaultResultLimit
	}
	if c.Remote.MaxCandidates == 0 {
		c.Remote.MaxCandidates = defaultMaxCandidates
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Charset = strings.ToLower(strings.TrimSpace(c.Subtitles.Charset))
	c.Subtitles.FFprobeBinary = strings.TrimSpace(c.Subtitles.FFprobeBinary)
	if c.Subtitles.FFprobeBinary == "" {
		c.Subtitles.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
