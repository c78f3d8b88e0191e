package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var (
	supportedFormats  = []string{"flac", "wav"}
	supportedBackends = []string{"auto", "udisks", "powershell", "diskfs", "none"}
	supportedLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateCue(); err != nil {
		return err
	}
	if !contains(supportedBackends, c.Mount.Backend) {
		return fmt.Errorf("mount.backend must be one of %s (got %q)", strings.Join(supportedBackends, ", "), c.Mount.Backend)
	}
	if !contains(supportedLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %s (got %q)", strings.Join(supportedLevels, ", "), c.Logging.Level)
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if !contains(supportedFormats, c.Extraction.Format) {
		return fmt.Errorf("extraction.format must be one of %s (got %q)", strings.Join(supportedFormats, ", "), c.Extraction.Format)
	}
	if c.Extraction.CompressionLevel < 0 || c.Extraction.CompressionLevel > maxCompressionLevel {
		return fmt.Errorf("extraction.compression_level must be between 0 and %d", maxCompressionLevel)
	}
	if c.Extraction.ChunkSize <= 0 {
		return errors.New("extraction.chunk_size must be positive")
	}
	if c.Extraction.ChunkSize%pcmFrameBytes != 0 {
		return fmt.Errorf("extraction.chunk_size must be a multiple of %d bytes", pcmFrameBytes)
	}
	if c.Extraction.Workers < 1 || c.Extraction.Workers > maxWorkers {
		return fmt.Errorf("extraction.workers must be between 1 and %d", maxWorkers)
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.ThresholdDB >= 0 {
		return errors.New("silence.threshold_db must be negative")
	}
	if c.Silence.MinDuration <= 0 {
		return errors.New("silence.min_duration must be positive")
	}
	return nil
}

func (c *Config) validateCue() error {
	if _, err := htmlindex.Get(c.Cue.FallbackEncoding); err != nil {
		return fmt.Errorf("cue.fallback_encoding %q is not a known encoding", c.Cue.FallbackEncoding)
	}
	return nil
}

func contains(values []string, candidate string) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}
