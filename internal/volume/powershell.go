package volume

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"autosplit/internal/logging"
	"autosplit/internal/services"
)

type powerShellMounter struct {
	exec    services.Executor
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	mounted map[string]struct{}
}

func newPowerShellMounter(exec services.Executor, timeout time.Duration, logger *slog.Logger) *powerShellMounter {
	return &powerShellMounter{
		exec:    exec,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "volume"),
		mounted: make(map[string]struct{}),
	}
}

func (m *powerShellMounter) Mount(ctx context.Context, image string) (*Volume, error) {
	image = absImage(image)
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	// -LiteralPath keeps brackets in file names from being read as wildcards.
	script := "Mount-DiskImage -LiteralPath " + psQuote(image) +
		" -PassThru | Get-Volume | Select-Object -ExpandProperty DriveLetter"
	out, err := m.powershell(ctx, script)
	if err != nil {
		return nil, services.Wrap(services.ErrMount, "powershell", "mount", "", err)
	}
	letter := driveLetter(string(out.Stdout))
	if letter == "" {
		// The image may have attached without a volume; release it.
		m.dismount(ctx, image)
		return nil, services.Wrap(services.ErrMount, "powershell", "mount", "no drive letter assigned", nil)
	}

	m.mu.Lock()
	m.mounted[image] = struct{}{}
	m.mu.Unlock()

	root := letter + `:\`
	m.logger.Info("image mounted", logging.String("mount_point", root))
	return &Volume{Image: image, Root: root, FS: os.DirFS(root), Backend: BackendPowerShell}, nil
}

func (m *powerShellMounter) Unmount(ctx context.Context, image string) {
	image = absImage(image)
	m.mu.Lock()
	_, ok := m.mounted[image]
	delete(m.mounted, image)
	m.mu.Unlock()
	if !ok {
		return
	}
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()
	m.dismount(ctx, image)
}

func (m *powerShellMounter) dismount(ctx context.Context, image string) {
	script := "Dismount-DiskImage -ImagePath " + psQuote(image) + " -Confirm:$false"
	if _, err := m.powershell(ctx, script); err != nil {
		logging.WarnWithContext(m.logger, "failed to dismount image", "unmount_failed",
			logging.Path("image", image),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "dismount the image from Explorer or Dismount-DiskImage"),
			logging.String(logging.FieldImpact, "image stays attached until released manually"),
		)
	}
}

func (m *powerShellMounter) powershell(ctx context.Context, script string) (services.Output, error) {
	return m.exec.Run(ctx, services.Command{
		Binary: "powershell",
		Args:   []string{"-NoProfile", "-NonInteractive", "-Command", script},
	})
}

// psQuote wraps value in a single-quoted PowerShell literal.
func psQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func driveLetter(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 1 && ((line[0] >= 'A' && line[0] <= 'Z') || (line[0] >= 'a' && line[0] <= 'z')) {
			return strings.ToUpper(line)
		}
	}
	return ""
}
