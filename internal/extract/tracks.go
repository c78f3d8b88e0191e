package extract

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"autosplit/internal/fileutil"
	"autosplit/internal/logging"
)

// trackJob produces one output file.
type trackJob struct {
	Number int
	Output string
	Run    func(ctx context.Context, output string) error
}

// runTracks executes jobs with bounded concurrency. A failing track is logged
// and skipped; the others still run. The returned paths follow job order.
func (r *run) runTracks(ctx context.Context, jobs []trackJob) []string {
	files := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.e.opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			logger := r.logger.With(logging.Track(job.Number))
			if err := job.Run(gctx, job.Output); err != nil {
				_ = fileutil.RemoveIfExists(job.Output)
				logging.WarnWithContext(logger, "track extraction failed", "track_failed",
					logging.Path("output", job.Output),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "see tool output in the log file"),
					logging.String(logging.FieldImpact, "track skipped; remaining tracks continue"),
				)
				return nil
			}
			if v := r.e.deps.Verifier; v != nil {
				if err := v.Verify(gctx, job.Output); err != nil {
					_ = fileutil.RemoveIfExists(job.Output)
					logging.WarnWithContext(logger, "track failed verification", "track_invalid",
						logging.Path("output", job.Output),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "output has no audio stream or zero duration"),
						logging.String(logging.FieldImpact, "track removed"),
					)
					return nil
				}
			}
			logger.Info("track written", logging.Path("output", job.Output))
			files[i] = job.Output
			return nil
		})
	}
	_ = g.Wait()
	return slices.DeleteFunc(files, func(path string) bool { return path == "" })
}
