package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"autosplit/internal/logging"
	"autosplit/internal/preflight"
	"autosplit/internal/services"
)

// runPreflightChecks validates directory access before any input is touched.
// Returns nil when all checks pass, or an error describing all failures.
func (m *Manager) runPreflightChecks(outputDir string, logger *slog.Logger) error {
	var failures []string
	for _, r := range preflight.RunAll(m.cfg, outputDir) {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported directory and rerun"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) > 0 {
		return services.Wrap(services.ErrValidation, "workflow", "preflight", strings.Join(failures, "; "), nil)
	}
	return nil
}
