package config

const (
	defaultConfigPath       = "~/.config/autosplit/config.toml"
	projectConfigName       = "autosplit.toml"
	scratchDirName          = ".autosplit-work"
	defaultLogDir           = "~/.local/share/autosplit/logs"
	defaultStateDir         = "~/.local/share/autosplit"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultSACDBinary       = "sacd_extract"
	defaultCommandTimeout   = 0
	defaultLegacyTimeout    = 0
	defaultFormat           = "flac"
	defaultCompressionLevel = 5
	defaultChunkSize        = 64 * 1024
	defaultWorkers          = 1
	defaultThresholdDB      = -40.0
	defaultMinDuration      = 2.0
	defaultFallbackEncoding = "windows-1252"
	defaultMountBackend     = "auto"
	defaultMountTimeout     = 60
	envFFmpegBinary         = "AUTOSPLIT_FFMPEG"
	envSACDExtractBinary    = "AUTOSPLIT_SACD_EXTRACT"
	maxCompressionLevel     = 12
	pcmFrameBytes           = 4
	maxWorkers              = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			CommandTimeout: defaultCommandTimeout,
			LegacyTimeout:  defaultLegacyTimeout,
		},
		Extraction: Extraction{
			Format:           defaultFormat,
			CompressionLevel: defaultCompressionLevel,
			ChunkSize:        defaultChunkSize,
			Workers:          defaultWorkers,
		},
		Silence: Silence{
			ThresholdDB: defaultThresholdDB,
			MinDuration: defaultMinDuration,
		},
		Cue: Cue{
			FallbackEncoding: defaultFallbackEncoding,
		},
		Mount: Mount{
			Backend: defaultMountBackend,
			Timeout: defaultMountTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
