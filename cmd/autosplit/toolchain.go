package main

import (
	"fmt"
	"log/slog"

	"autosplit/internal/config"
	"autosplit/internal/deps"
	"autosplit/internal/extract"
	"autosplit/internal/logging"
	"autosplit/internal/media/ffprobe"
	"autosplit/internal/rawstream"
	"autosplit/internal/services/ffmpeg"
	"autosplit/internal/services/sacd"
	"autosplit/internal/silence"
	"autosplit/internal/volume"
)

// toolchain holds the external tool clients resolved once per invocation.
type toolchain struct {
	ffmpeg  *ffmpeg.Client
	sacd    *sacd.Client
	ffprobe *ffprobe.Prober
	mounter volume.Mounter
}

func newFFmpeg(cfg *config.Config) (*ffmpeg.Client, error) {
	path, err := deps.ResolveTool(cfg.Tools.FFmpeg, "ffmpeg")
	if err != nil {
		return nil, err
	}
	return ffmpeg.New(path,
		ffmpeg.WithTimeout(cfg.CommandTimeout()),
		ffmpeg.WithOutput(cfg.Extraction.Format, cfg.Extraction.CompressionLevel),
	)
}

func newMounter(cfg *config.Config, logger *slog.Logger) (volume.Mounter, error) {
	return volume.NewMounter(volume.Options{
		Backend: cfg.Mount.Backend,
		Timeout: cfg.MountTimeout(),
		Logger:  logger,
	})
}

// buildToolchain resolves every tool. The decoder is required; the legacy
// extractor is optional and its absence only disables that strategy.
func buildToolchain(cfg *config.Config, logger *slog.Logger) (*toolchain, error) {
	ff, err := newFFmpeg(cfg)
	if err != nil {
		return nil, err
	}
	mounter, err := newMounter(cfg, logger)
	if err != nil {
		return nil, err
	}
	tc := &toolchain{ffmpeg: ff, mounter: mounter}

	if path, err := deps.ResolveTool(cfg.Tools.SACDExtract, "sacd_extract"); err != nil {
		logging.WarnWithContext(logger, "legacy extractor unavailable", "legacy_tool_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install sacd_extract or set tools.sacd_extract"),
			logging.String(logging.FieldImpact, "high-density disc images produce no audio"),
		)
	} else if tc.sacd, err = sacd.New(path, sacd.WithTimeout(cfg.LegacyTimeout())); err != nil {
		return nil, err
	}

	if cfg.Extraction.VerifyOutputs {
		path, err := deps.ResolveTool(cfg.Tools.FFprobe, "ffprobe")
		if err != nil {
			return nil, fmt.Errorf("verify_outputs requires ffprobe: %w", err)
		}
		tc.ffprobe = ffprobe.New(path, nil)
	}
	return tc, nil
}

func (tc *toolchain) extractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	d := extract.Deps{
		Decoder: tc.ffmpeg,
		Ranges:  rawstream.New(tc.ffmpeg, cfg.Extraction.ChunkSize, logger),
		Mounter: tc.mounter,
	}
	if tc.sacd != nil {
		d.Legacy = tc.sacd
	}
	if tc.ffprobe != nil {
		d.Verifier = tc.ffprobe
	}
	return extract.New(d, extract.Options{
		Workers:            cfg.Extraction.Workers,
		KeepConvertedImage: cfg.Extraction.KeepConvertedImage,
		Silence:            silenceOptions(cfg),
		CueEncoding:        cfg.Cue.FallbackEncoding,
		TempDir:            cfg.Paths.TempDir,
	}, logger)
}

func silenceOptions(cfg *config.Config) silence.Options {
	return silence.Options{ThresholdDB: cfg.Silence.ThresholdDB, MinDuration: cfg.Silence.MinDuration}
}
