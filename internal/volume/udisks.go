package volume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"autosplit/internal/logging"
	"autosplit/internal/services"
)

// mountsPath is a variable so tests can point mount resolution at a fixture.
var mountsPath = "/proc/mounts"

var errMountNotFound = errors.New("mount point not found")

var (
	loopDevicePattern = regexp.MustCompile(`(/dev/loop\d+)`)
	mountedAtPattern  = regexp.MustCompile(`Mounted \S+ at (.+?)\.?\s*$`)
)

type udisksMounter struct {
	exec    services.Executor
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	devices map[string]string
}

func newUdisksMounter(exec services.Executor, timeout time.Duration, logger *slog.Logger) *udisksMounter {
	return &udisksMounter{
		exec:    exec,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "volume"),
		devices: make(map[string]string),
	}
}

func (m *udisksMounter) Mount(ctx context.Context, image string) (*Volume, error) {
	image = absImage(image)
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	out, err := m.udisksctl(ctx, "loop-setup", "-r", "-f", image)
	if err != nil {
		return nil, services.Wrap(services.ErrMount, "udisks", "loop-setup", "", err)
	}
	match := loopDevicePattern.FindStringSubmatch(string(out.Stdout))
	if match == nil {
		return nil, services.Wrap(services.ErrMount, "udisks", "loop-setup", "no loop device in output", nil)
	}
	device := match[1]

	mountPoint := ""
	out, err = m.udisksctl(ctx, "mount", "-b", device)
	if err == nil {
		if mm := mountedAtPattern.FindStringSubmatch(strings.TrimSpace(string(out.Stdout))); mm != nil {
			mountPoint = mm[1]
		}
	}
	if mountPoint == "" {
		// Desktop automounters may win the race and mount the loop device first.
		if resolved, rerr := resolveMountPoint(device); rerr == nil {
			mountPoint = resolved
			attrs := append(logging.DecisionAttrs("mount", "already_mounted", "found in mount table"),
				logging.String("mount_point", mountPoint))
			m.logger.Info("loop device already mounted", logging.Args(attrs...)...)
		}
	}
	if mountPoint == "" {
		m.deleteLoop(ctx, device)
		if err == nil {
			err = errMountNotFound
		}
		return nil, services.Wrap(services.ErrMount, "udisks", "mount", device, err)
	}

	m.mu.Lock()
	m.devices[image] = device
	m.mu.Unlock()

	m.logger.Info("image mounted",
		logging.String("device", device),
		logging.String("mount_point", mountPoint),
	)
	return &Volume{Image: image, Root: mountPoint, FS: os.DirFS(mountPoint), Backend: BackendUdisks}, nil
}

func (m *udisksMounter) Unmount(ctx context.Context, image string) {
	image = absImage(image)
	m.mu.Lock()
	device, ok := m.devices[image]
	delete(m.devices, image)
	m.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := withTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	if _, err := m.udisksctl(ctx, "unmount", "-b", device); err != nil {
		logging.WarnWithContext(m.logger, "failed to unmount image", "unmount_failed",
			logging.String("device", device),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run udisksctl unmount -b "+device),
			logging.String(logging.FieldImpact, "loop device stays mounted until released manually"),
		)
	}
	m.deleteLoop(ctx, device)
}

func (m *udisksMounter) deleteLoop(ctx context.Context, device string) {
	if _, err := m.udisksctl(ctx, "loop-delete", "-b", device); err != nil {
		logging.WarnWithContext(m.logger, "failed to delete loop device", "loop_delete_failed",
			logging.String("device", device),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run udisksctl loop-delete -b "+device),
			logging.String(logging.FieldImpact, "loop device remains allocated"),
		)
	}
}

func (m *udisksMounter) udisksctl(ctx context.Context, args ...string) (services.Output, error) {
	args = append(args, "--no-user-interaction")
	return m.exec.Run(ctx, services.Command{Binary: "udisksctl", Args: args})
}

// mountEscapes undoes the octal escaping /proc/mounts applies to fields.
var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

// resolveMountPoint finds where device is mounted by reading the mount table.
// Loop devices are compared by canonical path, falling back to their /dev
// base name.
func resolveMountPoint(device string) (string, error) {
	data, err := os.ReadFile(mountsPath)
	if err != nil {
		return "", fmt.Errorf("read mount table: %w", err)
	}
	want := canonicalDevice(device)
	for line := range strings.Lines(string(data)) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		got := canonicalDevice(mountEscapes.Replace(fields[0]))
		if got == want || (strings.HasPrefix(got, "/dev/") && strings.HasPrefix(want, "/dev/") && filepath.Base(got) == filepath.Base(want)) {
			return mountEscapes.Replace(fields[1]), nil
		}
	}
	return "", errMountNotFound
}

func canonicalDevice(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
