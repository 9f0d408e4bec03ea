package preflight

import (
	"context"
	"path/filepath"

	"subplay/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Remote.CacheEnabled && cfg.Paths.CacheDir != "" {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if cfg.Paths.SessionDB != "" {
		results = append(results, CheckDirectoryAccess("Session directory", filepath.Dir(cfg.Paths.SessionDB)))
	}
	results = append(results, CheckBinary("FFprobe", cfg.Subtitles.FFprobeBinary))
	if cfg.Remote.Enabled {
		results = append(results, CheckRemote(ctx, cfg))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
