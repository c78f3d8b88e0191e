package rawstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"autosplit/internal/logging"
	"autosplit/internal/services"
)

// DefaultChunkSize is the pump block size used when none is configured.
const DefaultChunkSize = 64 * 1024

// Sink is a running encoder accepting raw PCM.
type Sink interface {
	Write(p []byte) (int, error)
	// CloseInput signals end of input. It is safe to call more than once.
	CloseInput() error
	// Wait blocks until the encoder exits and reports its status.
	Wait() error
}

// Encoder starts a raw PCM encoder writing to outputPath.
type Encoder interface {
	StartRaw(ctx context.Context, outputPath string) (Sink, error)
}

// Stats describes one pumped range.
type Stats struct {
	Requested   int64
	Delivered   int64
	Partial     bool
	DecoderGone bool
}

// Extractor streams byte ranges into an Encoder.
type Extractor struct {
	encoder   Encoder
	chunkSize int
	logger    *slog.Logger
}

// New constructs an Extractor. A non-positive chunkSize selects DefaultChunkSize.
func New(encoder Encoder, chunkSize int, logger *slog.Logger) *Extractor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Extractor{
		encoder:   encoder,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "rawstream"),
	}
}

// ExtractRange streams exactly length bytes starting at offset from src into
// a new encoder process producing outputPath. The returned error is non-nil
// when the encoder could not start or exited unsuccessfully; a partial read
// is reported through Stats only.
func (e *Extractor) ExtractRange(ctx context.Context, src io.ReaderAt, offset, length int64, outputPath string) (Stats, error) {
	stats := Stats{Requested: length}
	if src == nil {
		return stats, services.Wrap(services.ErrValidation, "rawstream", "extract", "nil source", nil)
	}
	if offset < 0 || length <= 0 {
		return stats, services.Wrap(services.ErrValidation, "rawstream", "extract",
			fmt.Sprintf("invalid range offset=%d length=%d", offset, length), nil)
	}
	if e.encoder == nil {
		return stats, services.Wrap(services.ErrConfiguration, "rawstream", "extract", "encoder not configured", nil)
	}

	logger := logging.WithContext(ctx, e.logger)
	sink, err := e.encoder.StartRaw(ctx, outputPath)
	if err != nil {
		return stats, services.Wrap(services.ErrExtraction, "rawstream", "start encoder", "", err)
	}

	pumpErr := e.pump(ctx, sink, io.NewSectionReader(src, offset, length), &stats, logger)
	closeErr := sink.CloseInput()
	waitErr := sink.Wait()

	if stats.Delivered < stats.Requested {
		stats.Partial = true
	}
	if stats.Partial && !stats.DecoderGone {
		logging.WarnWithContext(logger, "source ended before range was delivered", "rawstream_partial",
			logging.Int64("requested_bytes", stats.Requested),
			logging.Int64("delivered_bytes", stats.Delivered),
			logging.String(logging.FieldErrorHint, "image may be truncated"),
			logging.String(logging.FieldImpact, "track is shorter than its table of contents entry"),
		)
	}

	switch {
	case waitErr != nil:
		return stats, services.Wrap(services.ErrExtraction, "rawstream", "encode", "", waitErr)
	case pumpErr != nil:
		return stats, pumpErr
	case closeErr != nil && !isClosedPipe(closeErr):
		return stats, services.Wrap(services.ErrExtraction, "rawstream", "close input", "", closeErr)
	}
	return stats, nil
}

func (e *Extractor) pump(ctx context.Context, sink Sink, r io.Reader, stats *Stats, logger *slog.Logger) error {
	buf := make([]byte, e.chunkSize)
	sampler := logging.NewProgressSampler(25)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			if _, err := sink.Write(buf[:n]); err != nil {
				if isClosedPipe(err) {
					stats.DecoderGone = true
					logger.Debug("encoder closed its input early", logging.Int64("delivered_bytes", stats.Delivered))
					return nil
				}
				return services.Wrap(services.ErrExtraction, "rawstream", "write", "", err)
			}
			stats.Delivered += int64(n)
			if percent, ok := sampler.Observe(stats.Delivered, stats.Requested); ok {
				logger.Debug("streaming range",
					logging.Float64("progress_percent", percent),
					logging.Int64("delivered_bytes", stats.Delivered),
				)
			}
		}
		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return nil
		default:
			// A failing source read ends the track like a short read would.
			logger.Debug("source read stopped", logging.Error(readErr))
			return nil
		}
	}
}

func isClosedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
