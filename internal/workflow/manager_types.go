package workflow

import (
	"time"

	"autosplit/internal/extract"
	"autosplit/internal/journal"
)

// Item is the outcome of one input in a batch.
type Item struct {
	Input       string
	Fingerprint string
	Status      journal.Status
	Result      extract.Result
	// Err is set for failed inputs.
	Err     error
	Elapsed time.Duration
}

// Summary describes a finished batch.
type Summary struct {
	RunID     string
	OutputDir string
	Items     []Item
	Elapsed   time.Duration
}

// Count returns how many items ended with status.
func (s Summary) Count(status journal.Status) int {
	n := 0
	for _, item := range s.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Files returns every file written during the batch in input order.
func (s Summary) Files() []string {
	var files []string
	for _, item := range s.Items {
		files = append(files, item.Result.Files...)
	}
	return files
}

// Clean reports whether every input either produced tracks or was skipped.
func (s Summary) Clean() bool {
	for _, item := range s.Items {
		if item.Status != journal.StatusSuccess && item.Status != journal.StatusSkipped {
			return false
		}
	}
	return true
}
