package ffmpeg

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"autosplit/internal/rawstream"
	"autosplit/internal/services"
	"autosplit/internal/silence"
)

// Raw PCM layout of Red Book audio: 16-bit little-endian stereo at 44.1 kHz.
var rawInputArgs = []string{"-f", "s16le", "-ar", "44100", "-ac", "2"}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout bounds each finished-command invocation. Streaming encodes are
// bounded by the caller's context instead.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithOutput selects the target container and FLAC compression level.
func WithOutput(format string, compressionLevel int) Option {
	return func(c *Client) {
		if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
			c.format = format
		}
		c.compressionLevel = compressionLevel
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary           string
	exec             services.Executor
	timeout          time.Duration
	format           string
	compressionLevel int
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:           binary,
		exec:             services.CommandExecutor{},
		format:           "flac",
		compressionLevel: 5,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Extension returns the output file extension without a dot.
func (c *Client) Extension() string {
	return c.format
}

// StartRaw launches an encoder reading raw PCM from standard input.
func (c *Client) StartRaw(ctx context.Context, outputPath string) (rawstream.Sink, error) {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	args = append(args, rawInputArgs...)
	args = append(args, "-i", "pipe:0")
	args = append(args, c.encodeArgs()...)
	args = append(args, outputPath)

	proc, err := c.exec.Start(ctx, services.Command{Binary: c.binary, Args: args})
	if err != nil {
		return nil, err
	}
	return &rawSink{proc: proc}, nil
}

// CutRaw encodes [start, end) seconds of a linear raw PCM image. When hasEnd
// is false the cut runs to the end of the image.
func (c *Client) CutRaw(ctx context.Context, rawPath, outputPath string, start, end float64, hasEnd bool) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	args = append(args, rawInputArgs...)
	args = append(args, "-i", rawPath, "-ss", formatSeconds(start))
	if hasEnd {
		args = append(args, "-to", formatSeconds(end))
	}
	args = append(args, c.encodeArgs()...)
	args = append(args, outputPath)
	return c.run(ctx, "cut raw", args)
}

// CopySegment stream-copies [start, end) seconds of an audio file without
// re-encoding.
func (c *Client) CopySegment(ctx context.Context, inputPath, outputPath string, start, end float64) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c", "copy",
		outputPath,
	}
	return c.run(ctx, "copy segment", args)
}

// Transcode converts any decodable input into the target format.
func (c *Client) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inputPath}
	args = append(args, c.encodeArgs()...)
	args = append(args, outputPath)
	return c.run(ctx, "transcode", args)
}

// DetectSilence runs the silencedetect filter over inputPath and returns the
// parsed log together with the input duration in seconds.
func (c *Client) DetectSilence(ctx context.Context, inputPath string, opts silence.Options) (silence.Log, float64, error) {
	args := []string{
		"-hide_banner", "-nostats",
		"-i", inputPath,
		"-af", opts.Filter(),
		"-f", "null", "-",
	}
	out, err := c.runOutput(ctx, args)
	if err != nil {
		return silence.Log{}, 0, services.Wrap(services.ErrExternalTool, "ffmpeg", "silencedetect", "", err)
	}
	text := string(out.Stderr)
	log := silence.ParseLog(text)
	if total, ok := silence.ParseDuration(text); ok {
		return log, total, nil
	}
	total, err := c.Duration(ctx, inputPath)
	if err != nil {
		return silence.Log{}, 0, err
	}
	return log, total, nil
}

// Duration reads the input duration from ffmpeg's stream summary. ffmpeg
// exits non-zero when given no output, so the exit status is ignored as long
// as the Duration line is present.
func (c *Client) Duration(ctx context.Context, inputPath string) (float64, error) {
	out, err := c.runOutput(ctx, []string{"-hide_banner", "-i", inputPath})
	if total, ok := silence.ParseDuration(string(out.Stderr)); ok {
		return total, nil
	}
	if err != nil && errors.Is(err, services.ErrTimeout) {
		return 0, err
	}
	return 0, services.Wrap(services.ErrParse, "ffmpeg", "duration", "no Duration line for "+inputPath, nil)
}

func (c *Client) encodeArgs() []string {
	switch c.format {
	case "wav":
		return []string{"-c:a", "pcm_s16le"}
	default:
		return []string{"-compression_level", strconv.Itoa(c.compressionLevel)}
	}
}

func (c *Client) run(ctx context.Context, op string, args []string) error {
	if _, err := c.runOutput(ctx, args); err != nil {
		return services.Wrap(services.ErrExtraction, "ffmpeg", op, "", err)
	}
	return nil
}

func (c *Client) runOutput(ctx context.Context, args []string) (services.Output, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.exec.Run(ctx, services.Command{Binary: c.binary, Args: args})
}

func formatSeconds(v float64) string {
	if v < 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

type rawSink struct {
	proc   services.Process
	closed bool
}

func (s *rawSink) Write(p []byte) (int, error) {
	return s.proc.Stdin().Write(p)
}

func (s *rawSink) CloseInput() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.proc.Stdin().Close()
}

func (s *rawSink) Wait() error {
	_ = s.CloseInput()
	return s.proc.Wait()
}
