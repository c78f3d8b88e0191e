package ffmpeg_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"autosplit/internal/services"
	"autosplit/internal/services/ffmpeg"
	"autosplit/internal/silence"
)

type stubExecutor struct {
	calls   []services.Command
	outputs []services.Output
	errs    []error
	stdin   bytes.Buffer
	waitErr error
}

func (s *stubExecutor) Run(_ context.Context, cmd services.Command) (services.Output, error) {
	i := len(s.calls)
	s.calls = append(s.calls, cmd)
	var out services.Output
	var err error
	if i < len(s.outputs) {
		out = s.outputs[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return out, err
}

func (s *stubExecutor) Start(_ context.Context, cmd services.Command) (services.Process, error) {
	s.calls = append(s.calls, cmd)
	return &stubProcess{stdin: &s.stdin, waitErr: s.waitErr}, nil
}

type stubProcess struct {
	stdin   *bytes.Buffer
	closed  int
	waitErr error
}

func (p *stubProcess) Stdin() io.WriteCloser { return nopCloser{p} }
func (p *stubProcess) Wait() error            { return p.waitErr }

type nopCloser struct{ p *stubProcess }

func (n nopCloser) Write(b []byte) (int, error) { return n.p.stdin.Write(b) }
func (n nopCloser) Close() error {
	n.p.closed++
	return nil
}

func newClient(t *testing.T, exec services.Executor, opts ...ffmpeg.Option) *ffmpeg.Client {
	t.Helper()
	client, err := ffmpeg.New("ffmpeg", append([]ffmpeg.Option{ffmpeg.WithExecutor(exec)}, opts...)...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ffmpeg.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestStartRawPipesPCM(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec)
	sink, err := client.StartRaw(context.Background(), "/out/Album - Track 01.flac")
	if err != nil {
		t.Fatalf("StartRaw: %v", err)
	}
	if _, err := sink.Write([]byte("pcm")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.CloseInput(); err != nil {
		t.Fatalf("CloseInput: %v", err)
	}
	if err := sink.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if exec.stdin.String() != "pcm" {
		t.Fatalf("stdin = %q", exec.stdin.String())
	}
	args := strings.Join(exec.calls[0].Args, " ")
	want := "-f s16le -ar 44100 -ac 2 -i pipe:0 -compression_level 5 /out/Album - Track 01.flac"
	if !strings.HasSuffix(args, want) {
		t.Fatalf("args %q missing %q", args, want)
	}
	if !slices.Contains(exec.calls[0].Args, "-y") {
		t.Fatal("expected overwrite flag")
	}
}

func TestCutRawOmitsEndForOpenTrack(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec, ffmpeg.WithOutput("wav", 0))
	if err := client.CutRaw(context.Background(), "disc.bin", "t1.wav", 0, 212.1333, true); err != nil {
		t.Fatalf("CutRaw: %v", err)
	}
	if err := client.CutRaw(context.Background(), "disc.bin", "t2.wav", 212.1333, 0, false); err != nil {
		t.Fatalf("CutRaw: %v", err)
	}
	first := strings.Join(exec.calls[0].Args, " ")
	if !strings.Contains(first, "-i disc.bin -ss 0.000 -to 212.133 -c:a pcm_s16le t1.wav") {
		t.Fatalf("unexpected args %q", first)
	}
	second := strings.Join(exec.calls[1].Args, " ")
	if strings.Contains(second, "-to") {
		t.Fatalf("open track must not pass -to: %q", second)
	}
	if client.Extension() != "wav" {
		t.Fatalf("extension = %q", client.Extension())
	}
}

func TestRunFailureIsExtractionError(t *testing.T) {
	exec := &stubExecutor{errs: []error{errors.New("exit status 1")}}
	client := newClient(t, exec)
	err := client.Transcode(context.Background(), "Track01.cda", "Track01.flac")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestCopySegmentUsesStreamCopy(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec)
	if err := client.CopySegment(context.Background(), "in.flac", "out.flac", 0.5, 120); err != nil {
		t.Fatalf("CopySegment: %v", err)
	}
	got := strings.Join(exec.calls[0].Args, " ")
	if !strings.Contains(got, "-i in.flac -ss 0.500 -to 120.000 -c copy out.flac") {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestDetectSilenceParsesStderr(t *testing.T) {
	stderr := "  Duration: 00:05:00.00, start: 0.000000\n" +
		"[silencedetect @ 0x1] silence_end: 0.5 | silence_duration: 0.5\n" +
		"[silencedetect @ 0x1] silence_start: 120\n" +
		"[silencedetect @ 0x1] silence_end: 122.5 | silence_duration: 2.5\n"
	exec := &stubExecutor{outputs: []services.Output{{Stderr: []byte(stderr)}}}
	client := newClient(t, exec)
	log, total, err := client.DetectSilence(context.Background(), "long.flac", silence.DefaultOptions())
	if err != nil {
		t.Fatalf("DetectSilence: %v", err)
	}
	if total != 300 {
		t.Fatalf("total = %v", total)
	}
	if !slices.Equal(log.Starts, []float64{120}) || !slices.Equal(log.Ends, []float64{0.5, 122.5}) {
		t.Fatalf("unexpected log %+v", log)
	}
	if !slices.Contains(exec.calls[0].Args, "silencedetect=noise=-40dB:d=2") {
		t.Fatalf("filter missing from %v", exec.calls[0].Args)
	}
}

func TestDurationIgnoresExitStatus(t *testing.T) {
	exec := &stubExecutor{
		outputs: []services.Output{{Stderr: []byte("Input #0\n  Duration: 01:02:03.50, bitrate: 1411 kb/s\nAt least one output file must be specified\n")}},
		errs:    []error{errors.New("exit status 1")},
	}
	client := newClient(t, exec)
	total, err := client.Duration(context.Background(), "in.wav")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if total != 3723.5 {
		t.Fatalf("total = %v", total)
	}

	missing := newClient(t, &stubExecutor{errs: []error{errors.New("exit status 1")}})
	if _, err := missing.Duration(context.Background(), "in.wav"); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
