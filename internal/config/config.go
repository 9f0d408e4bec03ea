package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
	SessionDB string `toml:"session_db"`
}

// Remote contains configuration for the remote subtitle search/download API.
type Remote struct {
	Enabled               bool   `toml:"enabled"`
	Token                 string `toml:"token"`
	BaseURL               string `toml:"base_url"`
	UserAgent             string `toml:"user_agent"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int    `toml:"read_timeout_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MinIntervalMillis     int    `toml:"min_interval_millis"`
	ResultLimit           int    `toml:"result_limit"`
	MaxCandidates         int    `toml:"max_candidates"`
	CacheEnabled          bool   `toml:"cache_enabled"`
}

// Subtitles contains configuration for decoding and track preference.
type Subtitles struct {
	// Charset names a legacy encoding (e.g. "gbk", "big5") used when a payload
	// is not valid UTF-8. Empty means no guessing.
	Charset        string `toml:"charset"`
	PreferEmbedded bool   `toml:"prefer_embedded"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Playback contains configuration for the synchronization loop.
type Playback struct {
	SyncIntervalMillis int `toml:"sync_interval_millis"`
	DelayStepMillis    int `toml:"delay_step_millis"`
}

// Feed contains configuration for the WebSocket cue feed.
type Feed struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subplay.
//
// Configuration sections by subsystem:
//   - Paths: log, cache and session database locations
//   - Remote: remote subtitle API credentials, timeouts and request budget
//   - Subtitles: charset fallback and embedded-track preference
//   - Playback: sync tick interval and delay step size
//   - Feed: WebSocket cue feed bind address
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Remote    Remote    `toml:"remote"`
	Subtitles Subtitles `toml:"subtitles"`
	Playback  Playback  `toml:"playback"`
	Feed      Feed      `toml:"feed"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("subplay.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.CacheDir}
	if c.Paths.SessionDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.SessionDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConnectTimeout returns the dial timeout for remote requests.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Remote.ConnectTimeoutSeconds) * time.Second
}

// ReadTimeout returns the response header timeout for remote requests.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Remote.ReadTimeoutSeconds) * time.Second
}

// RequestTimeout returns the overall per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Remote.RequestTimeoutSeconds) * time.Second
}

// MinInterval returns the minimum spacing between remote requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Remote.MinIntervalMillis) * time.Millisecond
}

// SyncInterval returns the synchronization loop tick interval.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Playback.SyncIntervalMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}
