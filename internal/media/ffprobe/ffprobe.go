package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"autosplit/internal/services"
)

// Result is the subset of `ffprobe -show_format -show_streams` output used
// to check written tracks.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      string `json:"duration"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_raw_sample,string"`
}

type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Prober runs ffprobe through an executor.
type Prober struct {
	binary string
	exec   services.Executor
}

// New returns a Prober for binary ("ffprobe" when empty). A nil executor runs
// real processes.
func New(binary string, exec services.Executor) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	return &Prober{binary: binary, exec: exec}
}

// Inspect probes path and decodes the JSON report.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	out, err := p.exec.Run(ctx, services.Command{
		Binary: p.binary,
		Args:   []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(out.Stdout, &result); err != nil {
		return Result{}, fmt.Errorf("decode ffprobe report for %s: %w", path, err)
	}
	return result, nil
}

// Verify rejects a written track that has no audio stream or no positive
// duration.
func (p *Prober) Verify(ctx context.Context, path string) error {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "ffprobe", "verify", "", err)
	}
	if len(result.Audio()) == 0 {
		return services.Wrap(services.ErrValidation, "ffprobe", "verify", "no audio stream in "+path, nil)
	}
	if d, ok := result.Seconds(); !ok || d <= 0 {
		return services.Wrap(services.ErrValidation, "ffprobe", "verify", "zero duration for "+path, nil)
	}
	return nil
}

// Audio returns the audio streams in container order.
func (r Result) Audio() []Stream {
	var audio []Stream
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			audio = append(audio, s)
		}
	}
	return audio
}

// Seconds is the container duration, or the first audio stream's when the
// container reports none. ok is false when the value is missing or garbled.
func (r Result) Seconds() (float64, bool) {
	raw := r.Format.Duration
	if raw == "" {
		if audio := r.Audio(); len(audio) > 0 {
			raw = audio[0].Duration
		}
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return d, err == nil
}
