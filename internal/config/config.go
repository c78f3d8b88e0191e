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

// Paths contains directories owned by autosplit itself.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	// TempDir hosts the hidden scratch directory. Empty means each output
	// directory hosts its own.
	TempDir string `toml:"temp_dir"`
}

// Tools names the external programs and their time limits.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	SACDExtract    string `toml:"sacd_extract"`
	CommandTimeout int    `toml:"command_timeout"` // seconds, 0 disables
	LegacyTimeout  int    `toml:"legacy_timeout"`  // seconds, 0 disables
}

// Extraction controls how tracks are produced.
type Extraction struct {
	Format             string `toml:"format"`
	CompressionLevel   int    `toml:"compression_level"`
	ChunkSize          int    `toml:"chunk_size"`
	Workers            int    `toml:"workers"`
	KeepConvertedImage bool   `toml:"keep_converted_image"`
	VerifyOutputs      bool   `toml:"verify_outputs"`
	SkipProcessed      bool   `toml:"skip_processed"`
}

// Silence tunes silence detection for single-file compilations.
type Silence struct {
	ThresholdDB float64 `toml:"threshold_db"`
	MinDuration float64 `toml:"min_duration"`
}

// Cue contains cue sheet decoding options.
type Cue struct {
	FallbackEncoding string `toml:"fallback_encoding"`
}

// Mount selects how disc images are attached.
type Mount struct {
	Backend string `toml:"backend"`
	Timeout int    `toml:"timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for autosplit.
//
// Configuration sections by subsystem:
//   - Paths: log, state and scratch directories
//   - Tools: external binaries and command timeouts
//   - Extraction: output format and track worker settings
//   - Silence: silencedetect threshold and minimum gap
//   - Cue: cue sheet character set fallback
//   - Mount: image mount backend
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Extraction Extraction `toml:"extraction"`
	Silence    Silence    `toml:"silence"`
	Cue        Cue        `toml:"cue"`
	Mount      Mount      `toml:"mount"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath is the per-user configuration file, expanded.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or the first existing default
// location when path is empty, then normalizes and validates it. It also
// returns the file it settled on and whether that file exists; a missing
// file yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile overlays the TOML file onto cfg. Unknown keys are rejected.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath picks the file Load reads. An explicit path is used even
// when missing. Otherwise the per-user file wins over autosplit.toml in the
// working directory, and the per-user path is reported when neither exists.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		switch {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath is the SQLite run journal inside the state directory.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// ScratchRoot is the parent of per-input scratch directories for a batch
// writing into outputDir: a hidden directory under temp_dir when set, else
// under the output. Stale sweeps only look inside it.
func (c *Config) ScratchRoot(outputDir string) string {
	base := outputDir
	if c.Paths.TempDir != "" {
		base = c.Paths.TempDir
	}
	return filepath.Join(base, scratchDirName)
}

// Timeouts are configured in whole seconds; zero or negative disables them.
func (c *Config) CommandTimeout() time.Duration { return seconds(c.Tools.CommandTimeout) }
func (c *Config) LegacyTimeout() time.Duration { return seconds(c.Tools.LegacyTimeout) }
func (c *Config) MountTimeout() time.Duration { return seconds(c.Mount.Timeout) }

func seconds(value int) time.Duration {
	return time.Duration(max(value, 0)) * time.Second
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// ExpandPath resolves a leading "~" and makes value absolute. Empty stays
// empty.
func ExpandPath(value string) (string, error) { return expandPath(value) }

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// CreateSample writes the annotated sample configuration to path, creating
// its directory.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
