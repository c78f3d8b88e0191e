package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCommandExecutorRunCapturesOutputOnFailure(t *testing.T) {
	bin := writeScript(t, "echo out\necho 'first' >&2\necho 'Duration: 00:01:00.00' >&2\nexit 3\n")
	out, err := CommandExecutor{}.Run(context.Background(), Command{Binary: bin})
	if err == nil {
		t.Fatal("expected non-zero exit to surface as error")
	}
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Duration: 00:01:00.00") {
		t.Fatalf("expected last stderr line in error, got %v", err)
	}
	if strings.TrimSpace(string(out.Stdout)) != "out" {
		t.Fatalf("unexpected stdout %q", out.Stdout)
	}
	if !strings.Contains(string(out.Stderr), "first") {
		t.Fatalf("expected stderr to be returned, got %q", out.Stderr)
	}
}

func TestCommandExecutorRunUsesWorkingDirectory(t *testing.T) {
	bin := writeScript(t, "pwd\n")
	dir := t.TempDir()
	out, err := CommandExecutor{}.Run(context.Background(), Command{Binary: bin, Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(out.Stdout)))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Fatalf("working dir = %q, want %q", got, want)
	}
}

func TestCommandExecutorRunTimeout(t *testing.T) {
	bin := writeScript(t, "sleep 5\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := CommandExecutor{}.Run(ctx, Command{Binary: bin})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestCommandExecutorStartStreamsStdin(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "captured")
	bin := writeScript(t, "cat > \""+dest+"\"\n")
	proc, err := CommandExecutor{}.Start(context.Background(), Command{Binary: bin})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := io.WriteString(proc.Stdin(), "pcm-bytes"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	if err := proc.Stdin().Close(); err != nil {
		t.Fatalf("close stdin: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read captured: %v", err)
	}
	if string(data) != "pcm-bytes" {
		t.Fatalf("captured %q", data)
	}
}

func TestTailBufferKeepsMostRecentBytes(t *testing.T) {
	buf := &tailBuffer{limit: 4}
	_, _ = buf.Write([]byte("abc"))
	_, _ = buf.Write([]byte("defg"))
	if got := buf.String(); got != "defg" {
		t.Fatalf("tail = %q", got)
	}
}
