package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"autosplit/internal/journal"
	"autosplit/internal/logging"
	"autosplit/internal/services"
	"autosplit/internal/staging"
	"autosplit/internal/volume"
)

// Run processes inputs into outputDir one at a time. Inputs that produce no
// audio or fail are recorded in the Summary; the returned error is reserved
// for batch-level faults such as a locked or unusable output directory or a
// cancelled context, in which case the Summary holds the inputs finished so far.
func (m *Manager) Run(ctx context.Context, inputs []string, outputDir string) (Summary, error) {
	summary := Summary{RunID: m.newRunID()}
	started := m.now()
	if m.processor == nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "run", "processor not configured", nil)
	}
	if len(inputs) == 0 {
		return summary, services.Wrap(services.ErrValidation, "workflow", "run", "no inputs given", nil)
	}

	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, m.logger)

	out, err := m.prepareOutput(outputDir)
	if err != nil {
		return summary, err
	}
	summary.OutputDir = out
	if err := m.runPreflightChecks(out, logger); err != nil {
		return summary, err
	}

	lock := flock.New(filepath.Join(out, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, "workflow", "lock output", out, err)
	}
	if !ok {
		return summary, services.Wrap(services.ErrValidation, "workflow", "lock output",
			"another autosplit process is writing to "+out, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove "+LockFileName+" if no autosplit process is running"),
				logging.String(logging.FieldImpact, "later runs may report the directory as busy"),
			)
		}
	}()

	if removed, _ := staging.CleanStale(ctx, m.processor.ScratchRoot(out), staging.DefaultMaxAge, logger); len(removed) > 0 {
		logger.Info("stale scratch directories removed", logging.Int("count", len(removed)))
	}

	logger.Info("batch started",
		logging.Int("inputs", len(inputs)),
		logging.Path("output_dir", out),
		logging.String(logging.FieldEventType, "batch_started"),
	)
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = m.now().Sub(started)
			return summary, err
		}
		item, err := m.processInput(ctx, logger, input, out)
		summary.Items = append(summary.Items, item)
		if err != nil {
			summary.Elapsed = m.now().Sub(started)
			return summary, err
		}
		logger.Debug("batch progress", logging.Int("done", i+1), logging.Int("total", len(inputs)))
	}
	summary.Elapsed = m.now().Sub(started)

	logger.Info("batch finished",
		logging.Int("succeeded", summary.Count(journal.StatusSuccess)),
		logging.Int("no_audio", summary.Count(journal.StatusNoAudio)),
		logging.Int("failed", summary.Count(journal.StatusFailed)),
		logging.Int("skipped", summary.Count(journal.StatusSkipped)),
		logging.Int("files", len(summary.Files())),
		logging.Duration("elapsed", summary.Elapsed),
		logging.String(logging.FieldEventType, "batch_finished"),
	)
	return summary, nil
}

func (m *Manager) prepareOutput(outputDir string) (string, error) {
	if strings.TrimSpace(outputDir) == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", "run", "output directory required", nil)
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "workflow", "resolve output", outputDir, err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", services.Wrap(services.ErrValidation, "workflow", "create output dir", out, err)
	}
	if m.cfg != nil {
		if err := m.cfg.EnsureDirectories(); err != nil {
			return "", services.Wrap(services.ErrConfiguration, "workflow", "ensure directories", "", err)
		}
		if m.cfg.Paths.TempDir != "" {
			if err := os.MkdirAll(m.cfg.Paths.TempDir, 0o755); err != nil {
				return "", services.Wrap(services.ErrConfiguration, "workflow", "create temp dir", m.cfg.Paths.TempDir, err)
			}
		}
	}
	return out, nil
}

// processInput handles one input. It returns an error only when the batch
// must stop.
func (m *Manager) processInput(ctx context.Context, batchLogger *slog.Logger, input, outputDir string) (Item, error) {
	started := m.now()
	item := Item{Input: input}
	if abs, err := filepath.Abs(input); err == nil {
		item.Input = abs
	}
	ctx = services.WithInput(ctx, item.Input)
	logger := logging.WithContext(ctx, m.logger)

	fp, err := m.fingerprint(ctx, item.Input)
	if err != nil {
		// Unreadable inputs still go to the extractor, which reports them.
		logger.Debug("fingerprint unavailable", logging.Error(err))
	}
	item.Fingerprint = fp

	if m.skipProcessed() && fp != "" && m.journal != nil {
		prior, err := m.journal.LastSuccess(ctx, fp, outputDir)
		if err != nil {
			logging.WarnWithContext(logger, "journal lookup failed", "journal_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the journal database in state_dir"),
				logging.String(logging.FieldImpact, "input processed again"),
			)
		} else if prior != nil {
			item.Status = journal.StatusSkipped
			item.Result.Files = prior.Files
			item.Elapsed = m.now().Sub(started)
			logger.Info("input skipped",
				logging.Args(logging.DecisionAttrs("skip", "skipped", "already split in run "+prior.RunID)...)...)
			m.record(ctx, logger, item, outputDir, started)
			return item, nil
		}
	}

	result, err := m.processor.Process(ctx, item.Input, outputDir)
	item.Result = result
	item.Elapsed = m.now().Sub(started)
	switch {
	case err != nil:
		item.Status = journal.StatusFailed
		item.Err = err
	case result.Reason != nil:
		item.Status = journal.StatusNoAudio
	default:
		item.Status = journal.StatusSuccess
	}
	m.record(ctx, logger, item, outputDir, started)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return item, err
		}
		logger.Error("input failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "input_failed"),
			logging.String(logging.FieldErrorHint, "check the input path and output directory"),
		)
		return item, nil
	}
	batchLogger.Info("input finished",
		logging.Path("input", item.Input),
		logging.String("status", string(item.Status)),
		logging.Int("files", len(result.Files)),
		logging.Duration("elapsed", item.Elapsed),
	)
	return item, nil
}

func (m *Manager) skipProcessed() bool {
	return m.cfg != nil && m.cfg.Extraction.SkipProcessed
}

// record writes the journal entry for item. Journal failures never stop a batch.
func (m *Manager) record(ctx context.Context, logger *slog.Logger, item Item, outputDir string, started time.Time) {
	if m.journal == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	entry := &journal.Entry{
		RunID:       runID,
		Input:       item.Input,
		Fingerprint: item.Fingerprint,
		OutputDir:   outputDir,
		Kind:        item.Result.Kind.String(),
		Strategy:    item.Result.Strategy,
		Status:      item.Status,
		Files:       item.Result.Files,
		StartedAt:   started,
		FinishedAt:  started.Add(item.Elapsed),
	}
	if item.Result.DiscType != volume.Unknown {
		entry.DiscType = item.Result.DiscType.String()
	}
	if item.Result.Reason != nil {
		entry.Reason = string(item.Result.Reason.Cause)
	}
	if item.Err != nil {
		entry.Error = item.Err.Error()
	}
	if err := m.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the journal database in state_dir"),
			logging.String(logging.FieldImpact, "history and skip_processed miss this input"),
		)
	}
}
