package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"autosplit/internal/logging"
)

// DefaultMaxAge is the age after which an unused scratch directory is stale.
const DefaultMaxAge = 24 * time.Hour

// DirInfo describes one scratch directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64 // sum of regular file sizes, best effort
}

// ListDirectories returns the scratch directories under root. A missing root
// lists nothing.
func ListDirectories(root string) ([]DirInfo, error) {
	dirs, err := scan(root)
	for i := range dirs {
		dirs[i].Size = treeSize(dirs[i].Path)
	}
	return dirs, err
}

// CleanStale removes scratch directories under root whose modification time
// is older than maxAge and returns the removed paths. Removal failures are
// logged and joined into err; cancellation stops the sweep early.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) (removed []string, err error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	dirs, err := scan(root)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-maxAge)
	var errs []error
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if rmErr := os.RemoveAll(dir.Path); rmErr != nil {
			errs = append(errs, rmErr)
			logging.WarnWithContext(logger, "failed to remove stale scratch directory", "scratch_cleanup_failed",
				logging.Path("path", dir.Path),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "check permissions on the output or temp_dir directory"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		removed = append(removed, dir.Path)
		logger.Info("removed stale scratch directory",
			logging.Path("path", dir.Path),
			logging.Duration("age", time.Since(dir.ModTime)),
			logging.String(logging.FieldEventType, "scratch_cleanup"),
		)
	}
	return removed, errors.Join(errs...)
}

func scan(root string) ([]DirInfo, error) {
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

func treeSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
