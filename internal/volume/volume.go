package volume

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"autosplit/internal/services"
)

// Backend names accepted by NewMounter.
const (
	BackendAuto       = "auto"
	BackendUdisks     = "udisks"
	BackendPowerShell = "powershell"
	BackendDiskfs     = "diskfs"
	BackendNone       = "none"
)

// Volume is a mounted image.
type Volume struct {
	Image   string
	Root    string
	FS      fs.FS
	Backend string
}

// Identify classifies the volume contents.
func (v *Volume) Identify() DiscType {
	if v == nil || v.FS == nil {
		return Unknown
	}
	return Identify(v.FS)
}

// Materialize makes name readable by external tools and returns its host
// path. Host-mounted volumes return the path in place; in-process volumes
// copy the file into dir.
func (v *Volume) Materialize(name, dir string) (string, error) {
	if v.Root != "" {
		return filepath.Join(v.Root, filepath.FromSlash(name)), nil
	}
	if v.FS == nil {
		return "", fmt.Errorf("volume %s has no filesystem", v.Image)
	}
	src, err := v.FS.Open(name)
	if err != nil {
		return "", fmt.Errorf("open %s on volume: %w", name, err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create materialize dir: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(filepath.FromSlash(name)))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("copy %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	return target, nil
}

// Mounter exposes disc images as volumes.
type Mounter interface {
	// Mount returns a volume for image. Failures wrap services.ErrMount.
	Mount(ctx context.Context, image string) (*Volume, error)
	// Unmount releases image. It is best-effort and idempotent: failures are
	// logged, and releasing an image that is not mounted does nothing.
	Unmount(ctx context.Context, image string)
}

// Options configures NewMounter.
type Options struct {
	Backend  string
	Executor services.Executor
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewMounter returns the backend selected by opts.Backend.
func NewMounter(opts Options) (Mounter, error) {
	exec := opts.Executor
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	backend := EffectiveBackend(opts.Backend)
	switch backend {
	case BackendUdisks:
		return newUdisksMounter(exec, opts.Timeout, opts.Logger), nil
	case BackendPowerShell:
		return newPowerShellMounter(exec, opts.Timeout, opts.Logger), nil
	case BackendDiskfs:
		return newDiskfsMounter(opts.Logger), nil
	case BackendNone:
		return noneMounter{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "volume", "select backend", "unknown mount backend "+backend, nil)
	}
}

// EffectiveBackend resolves "auto" and empty values to the host's backend.
func EffectiveBackend(backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" || backend == BackendAuto {
		return autoBackend(runtime.GOOS)
	}
	return backend
}

func autoBackend(goos string) string {
	if goos == "windows" {
		return BackendPowerShell
	}
	return BackendUdisks
}

type noneMounter struct{}

func (noneMounter) Mount(context.Context, string) (*Volume, error) {
	return nil, services.Wrap(services.ErrMount, "volume", "mount", "mounting disabled", nil)
}

func (noneMounter) Unmount(context.Context, string) {}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func absImage(image string) string {
	if abs, err := filepath.Abs(image); err == nil {
		return abs
	}
	return image
}
