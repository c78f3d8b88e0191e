package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"autosplit/internal/config"
	"autosplit/internal/journal"
)

// ConfigOption adjusts a test configuration. base is the per-test root all
// configured directories live under.
type ConfigOption func(cfg *config.Config, base string)

// NewConfig returns defaults rooted in a fresh temp directory, with bare tool
// names and mounting disabled, then applies opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Tools.FFmpeg = "ffmpeg"
	cfg.Tools.FFprobe = "ffprobe"
	cfg.Tools.SACDExtract = "sacd_extract"
	cfg.Mount.Backend = "none"
	for _, opt := range opts {
		opt(&cfg, base)
	}
	return &cfg
}

// WithTools points ffmpeg and sacd_extract at stubs. Empty values keep the
// defaults.
func WithTools(ffmpeg, sacdExtract string) ConfigOption {
	return func(cfg *config.Config, _ string) {
		if ffmpeg != "" {
			cfg.Tools.FFmpeg = ffmpeg
		}
		if sacdExtract != "" {
			cfg.Tools.SACDExtract = sacdExtract
		}
	}
}

// WithTempDir sets temp_dir to <base>/scratch without creating it.
func WithTempDir() ConfigOption {
	return func(cfg *config.Config, base string) {
		cfg.Paths.TempDir = filepath.Join(base, "scratch")
	}
}

// MustOpenJournal opens the journal configured in cfg and closes it with the test.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()
	store, err := journal.Open(context.Background(), cfg.JournalPath())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
