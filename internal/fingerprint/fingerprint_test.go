package fingerprint

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestFileIsStableAcrossRenames(t *testing.T) {
	data := bytes.Repeat([]byte("audio"), 50_000)
	first, err := File(context.Background(), writeFile(t, data))
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	second, err := File(context.Background(), writeFile(t, data))
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if first != second || len(first) != 64 {
		t.Fatalf("fingerprints differ: %s vs %s", first, second)
	}
}

func TestFileCoversHeadTailAndSize(t *testing.T) {
	base := bytes.Repeat([]byte{0x55}, 3*SampleSize)
	want, err := Reader(bytes.NewReader(base), int64(len(base)))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}

	cases := map[string]func([]byte) []byte{
		"head changed": func(b []byte) []byte { b[10] = 0; return b },
		"tail changed": func(b []byte) []byte { b[len(b)-1] = 0; return b },
		"size changed": func(b []byte) []byte { return append(b, 0x55) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			data := mutate(append([]byte(nil), base...))
			got, err := Reader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("Reader: %v", err)
			}
			if got == want {
				t.Fatalf("expected fingerprint to change")
			}
		})
	}

	// The middle is not sampled.
	data := append([]byte(nil), base...)
	data[len(data)/2] = 0
	got, _ := Reader(bytes.NewReader(data), int64(len(data)))
	if got != want {
		t.Fatalf("middle bytes should not affect the fingerprint")
	}
}

func TestFileRejectsDirectoriesAndCancelledContext(t *testing.T) {
	if _, err := File(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := File(ctx, writeFile(t, []byte("x"))); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestReaderHandlesEmptyAndShortInputs(t *testing.T) {
	empty, err := Reader(bytes.NewReader(nil), 0)
	if err != nil {
		t.Fatalf("Reader empty: %v", err)
	}
	short, err := Reader(bytes.NewReader([]byte("abc")), 3)
	if err != nil {
		t.Fatalf("Reader short: %v", err)
	}
	if empty == short {
		t.Fatal("empty and short inputs must differ")
	}
}
