package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget names a directory and a glob of prunable files in it.
// Exclude lists paths that survive regardless of age, such as the log
// currently being written.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs deletes matching files last modified more than
// retentionDays ago. Zero or negative days keeps everything. Failures are
// logged and never returned.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := make(map[string]bool)
	for _, target := range targets {
		for _, path := range target.Exclude {
			if path != "" {
				keep[absolute(path)] = true
			}
		}
	}
	for _, target := range targets {
		for _, path := range expired(target, cutoff) {
			if keep[path] {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("log_path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions on paths.log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			logger.Debug("log pruned", String("log_path", path), String(FieldEventType, "log_pruned"))
		}
	}
}

// expired lists regular files in target.Dir matching target.Pattern whose
// modification time is before cutoff. An unreadable directory yields nothing.
func expired(target RetentionTarget, cutoff time.Time) []string {
	if target.Dir == "" {
		return nil
	}
	entries, err := os.ReadDir(target.Dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if target.Pattern != "" {
			if ok, _ := filepath.Match(target.Pattern, entry.Name()); !ok {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		paths = append(paths, absolute(filepath.Join(target.Dir, entry.Name())))
	}
	return paths
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
