package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"autosplit/internal/config"
	"autosplit/internal/extract"
	"autosplit/internal/fingerprint"
	"autosplit/internal/journal"
	"autosplit/internal/logging"
)

// LockFileName is created inside the output directory while a batch runs.
const LockFileName = ".autosplit.lock"

// Processor extracts a single input.
type Processor interface {
	Process(ctx context.Context, input, outputDir string) (extract.Result, error)
	ScratchRoot(outputDir string) string
}

// Journal persists processing history. A nil Journal disables history.
type Journal interface {
	Record(ctx context.Context, entry *journal.Entry) error
	LastSuccess(ctx context.Context, fingerprint, outputDir string) (*journal.Entry, error)
}

// Fingerprinter computes the content key of an input file.
type Fingerprinter func(ctx context.Context, path string) (string, error)

// Manager coordinates batch processing.
type Manager struct {
	cfg       *config.Config
	processor Processor
	journal   Journal
	logger    *slog.Logger

	fingerprint Fingerprinter
	newRunID    func() string
	now         func() time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithFingerprinter replaces the content fingerprint function.
func WithFingerprinter(fn Fingerprinter) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.fingerprint = fn
		}
	}
}

// WithRunIDSource replaces the run ID generator.
func WithRunIDSource(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newRunID = fn
		}
	}
}

// NewManager constructs a batch manager.
func NewManager(cfg *config.Config, processor Processor, store Journal, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:         cfg,
		processor:   processor,
		journal:     store,
		logger:      logging.NewComponentLogger(logger, "workflow"),
		fingerprint: fingerprint.File,
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
