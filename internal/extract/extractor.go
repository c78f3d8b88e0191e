package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autosplit/internal/fileutil"
	"autosplit/internal/logging"
	"autosplit/internal/rawstream"
	"autosplit/internal/services"
	"autosplit/internal/silence"
	"autosplit/internal/textutil"
	"autosplit/internal/volume"
)

// ScratchDirName is the per-output-directory working area used when no
// temp_dir is configured.
const ScratchDirName = ".autosplit-work"

// Decoder encodes, cuts and analyses audio.
type Decoder interface {
	Extension() string
	CutRaw(ctx context.Context, rawPath, outputPath string, start, end float64, hasEnd bool) error
	CopySegment(ctx context.Context, inputPath, outputPath string, start, end float64) error
	Transcode(ctx context.Context, inputPath, outputPath string) error
	DetectSilence(ctx context.Context, inputPath string, opts silence.Options) (silence.Log, float64, error)
}

// RangeExtractor streams a byte range of linear PCM into an encoder.
type RangeExtractor interface {
	ExtractRange(ctx context.Context, src io.ReaderAt, offset, length int64, outputPath string) (rawstream.Stats, error)
}

// Legacy extracts high-density audio files from an image into workDir.
type Legacy interface {
	Extract(ctx context.Context, image, workDir string) ([]string, error)
}

// Verifier rejects unusable outputs.
type Verifier interface {
	Verify(ctx context.Context, path string) error
}

// Deps are the collaborators an Extractor drives. Verifier may be nil.
type Deps struct {
	Decoder  Decoder
	Ranges   RangeExtractor
	Mounter  volume.Mounter
	Legacy   Legacy
	Verifier Verifier
}

// Options tune extraction.
type Options struct {
	// Workers bounds concurrent track encodes within one input.
	Workers            int
	KeepConvertedImage bool
	Silence            silence.Options
	CueEncoding        string
	// TempDir relocates .autosplit-work from the output directory.
	TempDir string
}

// Extractor runs the strategy state machine for single inputs.
type Extractor struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New constructs an Extractor.
func New(deps Deps, opts Options, logger *slog.Logger) *Extractor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Silence == (silence.Options{}) {
		opts.Silence = silence.DefaultOptions()
	}
	return &Extractor{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

// ScratchRoot returns the scratch directory used for outputDir.
func (e *Extractor) ScratchRoot(outputDir string) string {
	base := outputDir
	if e.opts.TempDir != "" {
		base = e.opts.TempDir
	}
	return filepath.Join(base, ScratchDirName)
}

// Process extracts input into outputDir. An input that yields nothing is not
// an error: the Result carries the reason. The returned error is reserved for
// caller faults such as an unusable output directory or a cancelled context.
func (e *Extractor) Process(ctx context.Context, input, outputDir string) (Result, error) {
	result := Result{Input: input}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := e.validate(input, outputDir); err != nil {
		return result, err
	}

	ctx = services.WithInput(ctx, input)
	r := &run{
		ctx:       ctx,
		e:         e,
		input:     input,
		image:     input,
		outputDir: outputDir,
		base:      textutil.BaseName(input),
		logger:    logging.WithContext(ctx, e.logger),
		claimed:   make(map[string]bool),
	}
	defer r.cleanup()

	result.Kind = Classify(input)
	current, ok := initialStep(result.Kind)
	if !ok {
		result.Reason = &NoAudioError{Input: input, Cause: CauseFormatUnrecognized}
		logging.WarnWithContext(r.logger, "input format not recognized", "format_unrecognized",
			logging.String(logging.FieldErrorHint, "supported inputs are .cue, .nrg, .iso, .img and common audio files"),
			logging.String(logging.FieldImpact, "input skipped"),
		)
		return result, nil
	}
	r.logger.Info("extraction strategy selected",
		logging.Args(logging.DecisionAttrs("strategy", current.String(), "input classified as "+result.Kind.String())...)...)

	var last Outcome
	for current != stepDone {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		started := time.Now()
		outcome := r.execute(current)
		attempt := Attempt{
			Strategy: current.String(),
			Outcome:  outcome.Kind.String(),
			Files:    len(outcome.Files),
			Elapsed:  time.Since(started),
		}
		if outcome.Err != nil {
			attempt.Error = outcome.Err.Error()
		}
		result.Attempts = append(result.Attempts, attempt)
		result.Strategy = current.String()
		if current == stepInspect {
			result.DiscType = outcome.DiscType
		}
		if len(outcome.Files) > 0 {
			result.Files = outcome.Files
		}

		next := transition(current, outcome)
		if next != stepDone {
			attrs := append(logging.DecisionAttrs("strategy", next.String(), current.String()+" "+outcome.Kind.String()),
				logging.String("previous", current.String()))
			if outcome.Err != nil {
				attrs = append(attrs, logging.Error(outcome.Err))
			}
			r.logger.Info("strategy transition", logging.Args(attrs...)...)
		}
		last = outcome
		current = next
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if len(result.Files) == 0 {
		cause := last.Cause
		if cause == "" {
			cause = CauseToolsFailed
		}
		result.Reason = &NoAudioError{Input: input, Cause: cause, Err: last.Err}
		logging.WarnWithContext(r.logger, "no audio produced", "no_audio",
			logging.String("cause", string(cause)),
			logging.String(logging.FieldErrorHint, hintFor(cause)),
			logging.String(logging.FieldImpact, "input produced no tracks"),
		)
		return result, nil
	}
	r.logger.Info("extraction complete",
		logging.Int("files", len(result.Files)),
		logging.String("final_strategy", result.Strategy),
	)
	return result, nil
}

func (e *Extractor) validate(input, outputDir string) error {
	if strings.TrimSpace(input) == "" {
		return services.Wrap(services.ErrValidation, "extract", "process", "input path required", nil)
	}
	info, err := os.Stat(input)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "stat input", input, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "extract", "process", input+" is a directory", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return services.Wrap(services.ErrValidation, "extract", "process", "output directory required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "extract", "create output dir", outputDir, err)
	}
	return nil
}

func hintFor(cause Cause) string {
	switch cause {
	case CauseFormatUnrecognized:
		return "input is not a recognized disc image, sheet or audio file"
	case CauseNoTracks:
		return "sheet or image carries no track table"
	case CauseNoMount:
		return "image could not be mounted and the legacy extractor found nothing; check mount.backend and tools.sacd_extract"
	case CauseNotAudioDisc:
		return "volume holds data files only"
	case CauseNoSilence:
		return "no audible segments found; adjust silence.threshold_db or silence.min_duration"
	case CauseMissingRawImage:
		return "place the .bin referenced by the sheet next to it"
	default:
		return "check tool output in the log file"
	}
}

// run carries the state of one Process call.
type run struct {
	ctx       context.Context
	e         *Extractor
	input     string
	image     string
	outputDir string
	base      string
	logger    *slog.Logger

	converted   string
	vol         *volume.Volume
	mountFailed bool
	scratch     string
	claimed     map[string]bool
}

func (r *run) execute(s step) Outcome {
	ctx := services.WithStrategy(r.ctx, s.String())
	switch s {
	case stepSheet:
		return r.sheet(ctx)
	case stepDirect:
		return r.direct(ctx)
	case stepConvert:
		return r.convert(ctx)
	case stepMount:
		return r.mount(ctx)
	case stepInspect:
		return r.inspect(ctx)
	case stepLegacy:
		return r.legacy(ctx)
	case stepRip:
		return r.rip(ctx)
	case stepSilence:
		return r.silence(ctx)
	default:
		return Outcome{Kind: Failed, Err: errors.New("no action for step " + s.String())}
	}
}

// release unmounts the volume if one is held. It is safe to call repeatedly.
func (r *run) release() {
	if r.vol == nil || r.e.deps.Mounter == nil {
		return
	}
	image := r.vol.Image
	r.vol = nil
	r.e.deps.Mounter.Unmount(context.WithoutCancel(r.ctx), image)
	r.logger.Debug("volume released", logging.Path("image", image))
}

func (r *run) cleanup() {
	r.release()
	if r.converted != "" {
		if err := fileutil.RemoveIfExists(r.converted); err != nil {
			logging.WarnWithContext(r.logger, "failed to remove converted image", "cleanup_failed",
				logging.Path("image", r.converted),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file manually"),
				logging.String(logging.FieldImpact, "temporary image left in the output directory"),
			)
		} else {
			r.logger.Debug("converted image removed", logging.Path("image", r.converted))
		}
		r.converted = ""
	}
	if r.scratch != "" {
		if err := os.RemoveAll(r.scratch); err != nil {
			r.logger.Debug("scratch cleanup failed", logging.Error(err))
		}
		// Only succeeds once no other run is using it.
		_ = os.Remove(filepath.Dir(r.scratch))
		r.scratch = ""
	}
}

// scratchDir returns a private working directory for this run.
func (r *run) scratchDir() (string, error) {
	if r.scratch != "" {
		return r.scratch, nil
	}
	root := r.e.ScratchRoot(r.outputDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(root, textutil.SanitizeToken(r.base)+"-")
	if err != nil {
		return "", err
	}
	r.scratch = dir
	return dir, nil
}

// claim reserves a unique output path for name inside the output directory.
// It is called while jobs are being built, before any worker starts.
func (r *run) claim(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; r.claimed[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	r.claimed[strings.ToLower(candidate)] = true
	return filepath.Join(r.outputDir, candidate)
}
