package rawstream_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"autosplit/internal/rawstream"
	"autosplit/internal/services"
)

type recordingSink struct {
	buf        bytes.Buffer
	limit      int
	writes     int
	closeCalls int
	waitErr    error
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.writes++
	if s.limit > 0 && s.buf.Len()+len(p) > s.limit {
		return 0, fmt.Errorf("write |1: %w", syscall.EPIPE)
	}
	return s.buf.Write(p)
}

func (s *recordingSink) CloseInput() error {
	s.closeCalls++
	return nil
}

func (s *recordingSink) Wait() error { return s.waitErr }

type stubEncoder struct {
	sink     *recordingSink
	startErr error
	outputs  []string
}

func (e *stubEncoder) StartRaw(_ context.Context, outputPath string) (rawstream.Sink, error) {
	e.outputs = append(e.outputs, outputPath)
	if e.startErr != nil {
		return nil, e.startErr
	}
	return e.sink, nil
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestExtractRangeDeliversExactRange(t *testing.T) {
	src := pattern(10_000)
	enc := &stubEncoder{sink: &recordingSink{}}
	ex := rawstream.New(enc, 1000, nil)

	stats, err := ex.ExtractRange(context.Background(), bytes.NewReader(src), 2352, 4704, "out.flac")
	if err != nil {
		t.Fatalf("ExtractRange: %v", err)
	}
	if stats.Delivered != 4704 || stats.Partial || stats.DecoderGone {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !bytes.Equal(enc.sink.buf.Bytes(), src[2352:2352+4704]) {
		t.Fatal("sink received wrong bytes")
	}
	if enc.sink.writes != 5 {
		t.Fatalf("expected 5 bounded writes, got %d", enc.sink.writes)
	}
	if enc.sink.closeCalls != 1 {
		t.Fatalf("expected input closed once, got %d", enc.sink.closeCalls)
	}
	if len(enc.outputs) != 1 || enc.outputs[0] != "out.flac" {
		t.Fatalf("unexpected outputs %v", enc.outputs)
	}
}

func TestExtractRangeShortSourceIsPartial(t *testing.T) {
	src := pattern(3000)
	enc := &stubEncoder{sink: &recordingSink{}}
	ex := rawstream.New(enc, 512, nil)

	stats, err := ex.ExtractRange(context.Background(), bytes.NewReader(src), 1000, 5000, "out.flac")
	if err != nil {
		t.Fatalf("short read should not fail: %v", err)
	}
	if !stats.Partial || stats.Delivered != 2000 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if enc.sink.closeCalls != 1 {
		t.Fatal("input must still be closed")
	}
}

func TestExtractRangeBrokenPipeDefersToEncoderStatus(t *testing.T) {
	src := pattern(8192)

	enc := &stubEncoder{sink: &recordingSink{limit: 2048}}
	stats, err := rawstream.New(enc, 1024, nil).ExtractRange(context.Background(), bytes.NewReader(src), 0, 8192, "a.flac")
	if err != nil {
		t.Fatalf("broken pipe with clean exit should succeed: %v", err)
	}
	if !stats.DecoderGone || stats.Delivered != 2048 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	failing := &stubEncoder{sink: &recordingSink{limit: 2048, waitErr: errors.New("exit status 1")}}
	_, err = rawstream.New(failing, 1024, nil).ExtractRange(context.Background(), bytes.NewReader(src), 0, 8192, "b.flac")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction failure from encoder exit, got %v", err)
	}
}

func TestExtractRangeStartFailure(t *testing.T) {
	enc := &stubEncoder{startErr: errors.New("no such binary")}
	_, err := rawstream.New(enc, 0, nil).ExtractRange(context.Background(), bytes.NewReader(pattern(10)), 0, 10, "x.flac")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractRangeRejectsInvalidRange(t *testing.T) {
	enc := &stubEncoder{sink: &recordingSink{}}
	ex := rawstream.New(enc, 0, nil)
	for _, tc := range []struct{ offset, length int64 }{{-1, 10}, {0, 0}, {0, -5}} {
		if _, err := ex.ExtractRange(context.Background(), bytes.NewReader(pattern(10)), tc.offset, tc.length, "x"); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("offset=%d length=%d: expected validation error, got %v", tc.offset, tc.length, err)
		}
	}
	if len(enc.outputs) != 0 {
		t.Fatal("encoder must not start for invalid ranges")
	}
}

func TestExtractRangeCancelledStillWaits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := &stubEncoder{sink: &recordingSink{}}
	stats, err := rawstream.New(enc, 16, nil).ExtractRange(ctx, bytes.NewReader(pattern(64)), 0, 64, "x.flac")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if stats.Delivered != 0 || enc.sink.closeCalls != 1 {
		t.Fatalf("expected closed input with nothing delivered, got %+v closes=%d", stats, enc.sink.closeCalls)
	}
}
