package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// WriteFile writes size bytes of a repeating 0..255 pattern to path. A size
// <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	data := make([]byte, max(size, 1))
	for i := range data {
		data[i] = byte(i)
	}
	WriteBytes(t, path, data)
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteExecutable installs a POSIX shell stub named name in dir and returns
// its path. Tests using stubs are skipped on Windows.
func WriteExecutable(t testing.TB, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}

// FFmpegStub writes an ffmpeg stand-in that copies stdin (or touches) the
// last argument, which is always the output path in autosplit invocations.
// stderr is echoed so silencedetect callers can be fed canned logs via
// the STUB_STDERR file next to the stub, when present.
func FFmpegStub(t testing.TB, dir string) string {
	t.Helper()
	return WriteExecutable(t, dir, "ffmpeg", `
for last; do :; done
stub_dir=$(dirname "$0")
if [ -f "$stub_dir/STUB_STDERR" ]; then cat "$stub_dir/STUB_STDERR" >&2; fi
if [ -f "$stub_dir/STUB_FAIL" ]; then exit 1; fi
echo "$@" >> "$stub_dir/calls.log"
case "$*" in
  *"pipe:0"*) cat > "$last" ;;
  *"-f null"*) exit 0 ;;
  *) printf 'audio' > "$last" ;;
esac
`)
}
