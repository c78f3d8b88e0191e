package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"autosplit/internal/cuesheet"
	"autosplit/internal/fileutil"
	"autosplit/internal/logging"
	"autosplit/internal/nrg"
	"autosplit/internal/services"
	"autosplit/internal/silence"
	"autosplit/internal/textutil"
	"autosplit/internal/volume"
)

func (r *run) sheet(ctx context.Context) Outcome {
	if r.e.deps.Decoder == nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: errors.New("decoder not configured")}
	}
	sheet, err := cuesheet.ParseFile(r.input, r.e.opts.CueEncoding)
	if err != nil {
		cause := CauseFormatUnrecognized
		if errors.Is(err, cuesheet.ErrMalformed) {
			cause = CauseNoTracks
		}
		return Outcome{Kind: Failed, Cause: cause, Err: err}
	}

	raw := LocateRawImage(r.input, sheet.File)
	if raw == "" {
		return Outcome{
			Kind:  Failed,
			Cause: CauseMissingRawImage,
			Err:   services.Wrap(services.ErrExtraction, "extract", "sheet", "raw image "+sheet.File+" not found", nil),
		}
	}
	info, err := os.Stat(raw)
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseMissingRawImage, Err: err}
	}
	spans := sheet.Resolve(cuesheet.RawSeconds(info.Size()))
	if len(spans) == 0 {
		return Outcome{Kind: Failed, Cause: CauseNoTracks, Err: cuesheet.ErrMalformed}
	}
	r.logger.Info("cue sheet parsed",
		logging.Int("tracks", len(spans)),
		logging.Path("raw_image", raw),
	)

	ext := r.e.deps.Decoder.Extension()
	jobs := make([]trackJob, 0, len(spans))
	for _, span := range spans {
		jobs = append(jobs, trackJob{
			Number: span.Number,
			Output: r.claim(textutil.TrackFileName(r.base, span.Number, ext)),
			Run: func(ctx context.Context, output string) error {
				// An open end with unknown length runs to the end of the image.
				return r.e.deps.Decoder.CutRaw(ctx, raw, output, span.Start, span.End, span.End > span.Start)
			},
		})
	}
	return filesOutcome(r.runTracks(ctx, jobs))
}

// LocateRawImage resolves the FILE entry next to the sheet, falling back to
// the sheet's own name with a .bin extension. It returns "" when neither
// exists.
func LocateRawImage(sheetPath, declared string) string {
	dir := filepath.Dir(sheetPath)
	if declared != "" {
		rel := filepath.FromSlash(strings.ReplaceAll(declared, `\`, "/"))
		for _, candidate := range []string{filepath.Join(dir, rel), filepath.Join(dir, filepath.Base(rel))} {
			if isFile(candidate) {
				return candidate
			}
		}
	}
	fallback := strings.TrimSuffix(sheetPath, filepath.Ext(sheetPath)) + ".bin"
	if isFile(fallback) {
		return fallback
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (r *run) direct(ctx context.Context) Outcome {
	if r.e.deps.Ranges == nil || r.e.deps.Decoder == nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: errors.New("range extractor not configured")}
	}
	img, err := nrg.Open(r.input)
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseFormatUnrecognized, Err: err}
	}
	defer img.Close()

	bounds, err := img.Tracks()
	switch {
	case errors.Is(err, nrg.ErrUnsupported):
		return Outcome{Kind: Unsupported, Cause: CauseNoTracks, Err: err}
	case err != nil:
		return Outcome{Kind: Failed, Cause: CauseNoTracks, Err: err}
	case len(bounds) == 0:
		return Outcome{Kind: Unsupported, Cause: CauseNoTracks, Err: errors.New("no CUEX track table")}
	}
	r.logger.Info("container track table decoded", logging.Int("tracks", len(bounds)))

	ext := r.e.deps.Decoder.Extension()
	src := img.ReaderAt()
	jobs := make([]trackJob, 0, len(bounds))
	for i, b := range bounds {
		number := i + 1
		jobs = append(jobs, trackJob{
			Number: number,
			Output: r.claim(textutil.TrackFileName(r.base, number, ext)),
			Run: func(ctx context.Context, output string) error {
				stats, err := r.e.deps.Ranges.ExtractRange(ctx, src, b.ByteOffset(), b.ByteLength(), output)
				if err == nil && stats.Partial {
					r.logger.Debug("partial track kept",
						logging.Track(number),
						logging.Int64("delivered_bytes", stats.Delivered),
						logging.Int64("requested_bytes", stats.Requested),
					)
				}
				return err
			},
		})
	}
	return filesOutcome(r.runTracks(ctx, jobs))
}

func (r *run) convert(context.Context) Outcome {
	img, err := nrg.Open(r.input)
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseFormatUnrecognized, Err: err}
	}
	defer img.Close()

	target := r.claim(r.base + ".iso")
	length := img.PayloadLength()
	if _, err := fileutil.CopyRange(img.ReaderAt(), 0, length, target); err != nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: services.Wrap(services.ErrExtraction, "extract", "convert", "", err)}
	}
	if !r.e.opts.KeepConvertedImage {
		r.converted = target
	}
	r.image = target
	r.logger.Info("container converted to plain image",
		logging.Path("image", target),
		logging.Int64("image_bytes", length),
	)
	return Outcome{Kind: Success}
}

func (r *run) mount(ctx context.Context) Outcome {
	if r.e.deps.Mounter == nil {
		r.mountFailed = true
		return Outcome{Kind: Failed, Cause: CauseNoMount, Err: errors.New("mounter not configured")}
	}
	vol, err := r.e.deps.Mounter.Mount(ctx, r.image)
	if err != nil {
		r.mountFailed = true
		return Outcome{Kind: Failed, Cause: CauseNoMount, Err: err}
	}
	r.vol = vol
	r.logger.Info("image mounted", logging.String("backend", vol.Backend))
	return Outcome{Kind: Success}
}

func (r *run) inspect(context.Context) Outcome {
	discType := r.vol.Identify()
	r.logger.Info("volume inspected",
		logging.Args(logging.DecisionAttrs("disc_type", discType.String(), "volume layout")...)...)
	switch discType {
	case volume.AudioCD:
		return Outcome{Kind: Success, DiscType: discType}
	case volume.SACD:
		// The legacy extractor reads the image itself; the mount must go first.
		r.release()
		return Outcome{Kind: Success, DiscType: discType}
	default:
		r.release()
		return Outcome{Kind: NotAudio, DiscType: discType, Cause: CauseNotAudioDisc}
	}
}

func (r *run) rip(ctx context.Context) Outcome {
	defer r.release()
	vol := r.vol
	if vol == nil || r.e.deps.Decoder == nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: errors.New("no mounted volume")}
	}
	names, err := volume.TrackFiles(vol.FS)
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: err}
	}
	if len(names) == 0 {
		return Outcome{Kind: Failed, Cause: CauseNoTracks, Err: errors.New("no track descriptors on volume")}
	}
	scratch := ""
	if vol.Root == "" {
		if scratch, err = r.scratchDir(); err != nil {
			return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: err}
		}
	}

	ext := r.e.deps.Decoder.Extension()
	jobs := make([]trackJob, 0, len(names))
	for i, name := range names {
		jobs = append(jobs, trackJob{
			Number: i + 1,
			Output: r.claim(textutil.BaseName(name) + "." + ext),
			Run: func(ctx context.Context, output string) error {
				src, err := vol.Materialize(name, scratch)
				if err != nil {
					return err
				}
				if vol.Root == "" {
					defer os.Remove(src)
				}
				return r.e.deps.Decoder.Transcode(ctx, src, output)
			},
		})
	}
	return filesOutcome(r.runTracks(ctx, jobs))
}

func (r *run) legacy(ctx context.Context) Outcome {
	// After a failed mount an empty result means the image was unreadable.
	emptyCause := CauseToolsFailed
	if r.mountFailed {
		emptyCause = CauseNoMount
	}
	if r.e.deps.Legacy == nil || r.e.deps.Decoder == nil {
		return Outcome{Kind: Failed, Cause: emptyCause, Err: errors.New("legacy extractor not configured")}
	}
	work, err := r.scratchDir()
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: err}
	}
	dsfs, err := r.e.deps.Legacy.Extract(ctx, r.image, work)
	if err != nil {
		return Outcome{Kind: Failed, Cause: emptyCause, Err: err}
	}
	if len(dsfs) == 0 {
		return Outcome{Kind: Failed, Cause: emptyCause, Err: errors.New("legacy extractor produced no files")}
	}
	r.logger.Info("legacy extraction finished", logging.Int("intermediate_files", len(dsfs)))

	ext := r.e.deps.Decoder.Extension()
	jobs := make([]trackJob, 0, len(dsfs))
	for i, dsf := range dsfs {
		jobs = append(jobs, trackJob{
			Number: i + 1,
			Output: r.claim(textutil.BaseName(dsf) + "." + ext),
			Run: func(ctx context.Context, output string) error {
				if err := r.e.deps.Decoder.Transcode(ctx, dsf, output); err != nil {
					return err
				}
				if err := fileutil.RemoveIfExists(dsf); err != nil {
					r.logger.Warn("intermediate file not removed",
						logging.Path("path", dsf),
						logging.Error(err),
						logging.String(logging.FieldEventType, "intermediate_cleanup_failed"),
						logging.String(logging.FieldImpact, "scratch space reclaimed when the run finishes"),
					)
				}
				return nil
			},
		})
	}
	out := filesOutcome(r.runTracks(ctx, jobs))
	if out.Kind != Success {
		out.Cause = CauseToolsFailed
	}
	return out
}

func (r *run) silence(ctx context.Context) Outcome {
	if r.e.deps.Decoder == nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: errors.New("decoder not configured")}
	}
	log, total, err := r.e.deps.Decoder.DetectSilence(ctx, r.input, r.e.opts.Silence)
	if err != nil {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: err}
	}
	segments := silence.Split(log, total)
	r.logger.Info("silence analysed",
		logging.Int("segments", len(segments)),
		logging.Float64("duration_seconds", total),
	)
	if len(segments) == 0 {
		return Outcome{Kind: Failed, Cause: CauseNoSilence, Err: errors.New("no audible segments")}
	}

	// Stream copy keeps the source container.
	ext := strings.TrimPrefix(filepath.Ext(r.input), ".")
	jobs := make([]trackJob, 0, len(segments))
	for i, seg := range segments {
		number := i + 1
		jobs = append(jobs, trackJob{
			Number: number,
			Output: r.claim(textutil.TrackFileName(r.base, number, ext)),
			Run: func(ctx context.Context, output string) error {
				return r.e.deps.Decoder.CopySegment(ctx, r.input, output, seg.Start, seg.End)
			},
		})
	}
	return filesOutcome(r.runTracks(ctx, jobs))
}

func filesOutcome(files []string) Outcome {
	if len(files) == 0 {
		return Outcome{Kind: Failed, Cause: CauseToolsFailed, Err: services.Wrap(services.ErrExtraction, "extract", "tracks", "every track failed", nil)}
	}
	return Outcome{Kind: Success, Files: files}
}
