package config

const (
	defaultConfigPath            = "~/.config/subplay/config.toml"
	defaultLogDir                = "~/.local/share/subplay/logs"
	defaultCacheDir              = "~/.cache/subplay/subtitles"
	defaultSessionDB             = "~/.local/share/subplay/sessions.db"
	defaultRemoteBaseURL         = "https://api.assrt.net/v1"
	defaultRemoteUserAgent       = "subplay/dev"
	defaultConnectTimeoutSeconds = 10
	defaultReadTimeoutSeconds    = 20
	defaultRequestTimeoutSeconds = 45
	// 20 requests per minute is the published budget of the free API tier.
	defaultMinIntervalMillis  = 3000
	defaultResultLimit        = 15
	maxResultLimit            = 15
	defaultMaxCandidates      = 5
	defaultSyncIntervalMillis = 100
	defaultDelayStepMillis    = 500
	defaultFeedBind           = "127.0.0.1:7490"
	defaultFFprobeBinary      = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir,
			SessionDB: defaultSessionDB,
		},
		Remote: Remote{
			BaseURL:               defaultRemoteBaseURL,
			UserAgent:             defaultRemoteUserAgent,
			ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			ReadTimeoutSeconds:    defaultReadTimeoutSeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			MinIntervalMillis:     defaultMinIntervalMillis,
			ResultLimit:           defaultResultLimit,
			MaxCandidates:         defaultMaxCandidates,
			CacheEnabled:          true,
		},
		Subtitles: Subtitles{
			FFprobeBinary: defaultFFprobeBinary,
		},
		Playback: Playback{
			SyncIntervalMillis: defaultSyncIntervalMillis,
			DelayStepMillis:    defaultDelayStepMillis,
		},
		Feed: Feed{
			Bind: defaultFeedBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
