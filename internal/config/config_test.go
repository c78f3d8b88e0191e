package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autosplit/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AUTOSPLIT_FFMPEG", "")
	t.Setenv("AUTOSPLIT_SACD_EXTRACT", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "autosplit", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "autosplit", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.TempDir != "" {
		t.Fatalf("expected empty temp dir, got %q", cfg.Paths.TempDir)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" || cfg.Tools.SACDExtract != "sacd_extract" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if cfg.Extraction.Format != "flac" || cfg.Extraction.CompressionLevel != 5 {
		t.Fatalf("unexpected extraction defaults: %+v", cfg.Extraction)
	}
	if cfg.Extraction.ChunkSize != 64*1024 {
		t.Fatalf("unexpected chunk size %d", cfg.Extraction.ChunkSize)
	}
	if cfg.Extraction.Workers != 1 {
		t.Fatalf("expected a single worker by default, got %d", cfg.Extraction.Workers)
	}
	if cfg.Silence.ThresholdDB != -40 || cfg.Silence.MinDuration != 2.0 {
		t.Fatalf("unexpected silence defaults: %+v", cfg.Silence)
	}
	if cfg.Mount.Backend != "auto" {
		t.Fatalf("unexpected mount backend %q", cfg.Mount.Backend)
	}
	if cfg.JournalPath() != filepath.Join(tempHome, ".local", "share", "autosplit", "journal.db") {
		t.Fatalf("unexpected journal path %q", cfg.JournalPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "autosplit.toml")

	type payload struct {
		Extraction struct {
			Format  string `toml:"format"`
			Workers int    `toml:"workers"`
		} `toml:"extraction"`
		Silence struct {
			ThresholdDB float64 `toml:"threshold_db"`
			MinDuration float64 `toml:"min_duration"`
		} `toml:"silence"`
		Mount struct {
			Backend string `toml:"backend"`
		} `toml:"mount"`
	}
	custom := payload{}
	custom.Extraction.Format = "WAV"
	custom.Extraction.Workers = 4
	custom.Silence.ThresholdDB = -25
	custom.Silence.MinDuration = 0.5
	custom.Mount.Backend = " DiskFS "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Extraction.Format != "wav" {
		t.Fatalf("expected normalized format, got %q", cfg.Extraction.Format)
	}
	if cfg.Extraction.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Extraction.Workers)
	}
	if cfg.Silence.ThresholdDB != -25 || cfg.Silence.MinDuration != 0.5 {
		t.Fatalf("unexpected silence overrides: %+v", cfg.Silence)
	}
	if cfg.Mount.Backend != "diskfs" {
		t.Fatalf("expected normalized backend, got %q", cfg.Mount.Backend)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "autosplit.toml")
	if err := os.WriteFile(configPath, []byte("[extraction]\nformatt = \"flac\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvVarFillsUnsetToolPaths(t *testing.T) {
	t.Setenv("AUTOSPLIT_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("AUTOSPLIT_SACD_EXTRACT", "")
	configPath := filepath.Join(t.TempDir(), "autosplit.toml")
	if err := os.WriteFile(configPath, []byte("[tools]\nsacd_extract = \"~/bin/sacd_extract\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tools.FFmpeg != filepath.Clean("/opt/ffmpeg/bin/ffmpeg") {
		t.Fatalf("expected ffmpeg from env, got %q", cfg.Tools.FFmpeg)
	}
	home, _ := os.UserHomeDir()
	if cfg.Tools.SACDExtract != filepath.Join(home, "bin", "sacd_extract") {
		t.Fatalf("expected expanded sacd_extract path, got %q", cfg.Tools.SACDExtract)
	}
}

func TestCreateSampleDecodesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[extraction]") {
		t.Fatalf("sample config missing extraction section: %s", contents)
	}

	cfg := config.Default()
	decoder := toml.NewDecoder(strings.NewReader(string(contents)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	def := config.Default()
	if cfg.Extraction != def.Extraction || cfg.Silence != def.Silence || cfg.Mount != def.Mount {
		t.Fatalf("sample drifted from defaults: %+v", cfg)
	}
}

func TestScratchRoot(t *testing.T) {
	cfg := config.Default()
	if got := cfg.ScratchRoot("/music/out"); got != filepath.Join("/music/out", ".autosplit-work") {
		t.Fatalf("unexpected default scratch root %q", got)
	}
	cfg.Paths.TempDir = "/scratch"
	if got := cfg.ScratchRoot("/music/out"); got != filepath.Join("/scratch", ".autosplit-work") {
		t.Fatalf("expected scratch nested under temp_dir, got %q", got)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"format", func(c *config.Config) { c.Extraction.Format = "mp3" }},
		{"compression", func(c *config.Config) { c.Extraction.CompressionLevel = 13 }},
		{"chunk size alignment", func(c *config.Config) { c.Extraction.ChunkSize = 1001 }},
		{"chunk size negative", func(c *config.Config) { c.Extraction.ChunkSize = -4 }},
		{"workers", func(c *config.Config) { c.Extraction.Workers = 0 }},
		{"threshold", func(c *config.Config) { c.Silence.ThresholdDB = 3 }},
		{"min duration", func(c *config.Config) { c.Silence.MinDuration = 0 }},
		{"encoding", func(c *config.Config) { c.Cue.FallbackEncoding = "klingon-8" }},
		{"backend", func(c *config.Config) { c.Mount.Backend = "fuse" }},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
