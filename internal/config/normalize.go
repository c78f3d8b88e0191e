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
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeMount()
	c.Cue.FallbackEncoding = strings.ToLower(strings.TrimSpace(c.Cue.FallbackEncoding))
	if c.Cue.FallbackEncoding == "" {
		c.Cue.FallbackEncoding = defaultFallbackEncoding
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(strings.TrimSpace(c.Paths.TempDir)); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if c.Tools.FFmpeg, err = normalizeBinary(c.Tools.FFmpeg, envFFmpegBinary, defaultFFmpegBinary); err != nil {
		return fmt.Errorf("tools.ffmpeg: %w", err)
	}
	if c.Tools.FFprobe, err = normalizeBinary(c.Tools.FFprobe, "", defaultFFprobeBinary); err != nil {
		return fmt.Errorf("tools.ffprobe: %w", err)
	}
	if c.Tools.SACDExtract, err = normalizeBinary(c.Tools.SACDExtract, envSACDExtractBinary, defaultSACDBinary); err != nil {
		return fmt.Errorf("tools.sacd_extract: %w", err)
	}
	if c.Tools.CommandTimeout < 0 {
		c.Tools.CommandTimeout = 0
	}
	if c.Tools.LegacyTimeout < 0 {
		c.Tools.LegacyTimeout = 0
	}
	return nil
}

// normalizeBinary keeps bare command names for PATH lookup and expands
// anything that looks like a filesystem path.
func normalizeBinary(value, envKey, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" && envKey != "" {
		if env, ok := os.LookupEnv(envKey); ok {
			value = strings.TrimSpace(env)
		}
	}
	if value == "" {
		return fallback, nil
	}
	if !strings.ContainsAny(value, `/\`) && !strings.HasPrefix(value, "~") {
		return value, nil
	}
	return expandPath(value)
}

func (c *Config) normalizeExtraction() {
	c.Extraction.Format = strings.ToLower(strings.TrimSpace(c.Extraction.Format))
	c.Extraction.Format = strings.TrimPrefix(c.Extraction.Format, ".")
	if c.Extraction.Format == "" {
		c.Extraction.Format = defaultFormat
	}
	if c.Extraction.ChunkSize == 0 {
		c.Extraction.ChunkSize = defaultChunkSize
	}
	if c.Extraction.Workers == 0 {
		c.Extraction.Workers = defaultWorkers
	}
}

func (c *Config) normalizeMount() {
	c.Mount.Backend = strings.ToLower(strings.TrimSpace(c.Mount.Backend))
	if c.Mount.Backend == "" {
		c.Mount.Backend = defaultMountBackend
	}
	if c.Mount.Timeout < 0 {
		c.Mount.Timeout = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
