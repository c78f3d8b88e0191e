package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status summarizes how processing an input ended.
type Status string

const (
	// StatusSuccess means at least one track was written.
	StatusSuccess Status = "success"
	// StatusNoAudio means every strategy ran and produced nothing.
	StatusNoAudio Status = "no_audio"
	// StatusFailed means processing stopped on an error.
	StatusFailed Status = "failed"
	// StatusSkipped means an earlier run already handled the same content.
	StatusSkipped Status = "skipped"
)

// Entry is one journal row.
type Entry struct {
	ID          int64
	RunID       string
	Input       string
	Fingerprint string
	OutputDir   string
	Kind        string
	Strategy    string
	DiscType    string
	Status      Status
	Files       []string
	Reason      string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Elapsed returns the processing time of the entry.
func (e Entry) Elapsed() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = "id, run_id, input_path, fingerprint, output_dir, kind, strategy, disc_type, status, files_json, reason, error_message, started_at, finished_at"

// Record inserts entry and assigns its ID.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("journal entry required")
	}
	if strings.TrimSpace(entry.RunID) == "" || strings.TrimSpace(entry.Input) == "" {
		return errors.New("journal entry requires run id and input")
	}
	if entry.Status == "" {
		return errors.New("journal entry requires status")
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now().UTC()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = entry.FinishedAt
	}
	files, err := json.Marshal(entry.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}

	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO entries (
            run_id, input_path, fingerprint, output_dir, kind, strategy, disc_type,
            status, files_json, reason, error_message, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.RunID,
			entry.Input,
			nullableString(entry.Fingerprint),
			entry.OutputDir,
			entry.Kind,
			nullableString(entry.Strategy),
			nullableString(entry.DiscType),
			string(entry.Status),
			string(files),
			nullableString(entry.Reason),
			nullableString(entry.Error),
			entry.StartedAt.UTC().Format(timeLayout),
			entry.FinishedAt.UTC().Format(timeLayout),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries ORDER BY finished_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// LastSuccess returns the newest successful entry for fingerprint written to
// outputDir, or nil when there is none.
func (s *Store) LastSuccess(ctx context.Context, fingerprint, outputDir string) (*Entry, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+` FROM entries
        WHERE fingerprint = ? AND output_dir = ? AND status = ?
        ORDER BY finished_at DESC, id DESC LIMIT 1`,
		fingerprint, outputDir, string(StatusSuccess))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last success: %w", err)
	}
	return entry, nil
}

// Counts tallies entries by status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM entries GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

// Prune deletes entries finished before cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM entries WHERE finished_at < ?",
			cutoff.UTC().Format(timeLayout))
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		fingerprint sql.NullString
		strategy    sql.NullString
		discType    sql.NullString
		status      string
		filesJSON   sql.NullString
		reason      sql.NullString
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Input,
		&fingerprint,
		&entry.OutputDir,
		&entry.Kind,
		&strategy,
		&discType,
		&status,
		&filesJSON,
		&reason,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	entry.Fingerprint = fingerprint.String
	entry.Strategy = strategy.String
	entry.DiscType = discType.String
	entry.Status = Status(status)
	entry.Reason = reason.String
	entry.Error = errorMsg.String
	if filesJSON.Valid && filesJSON.String != "" {
		if err := json.Unmarshal([]byte(filesJSON.String), &entry.Files); err != nil {
			return nil, fmt.Errorf("decode files: %w", err)
		}
	}
	entry.StartedAt = parseTime(startedRaw)
	entry.FinishedAt = parseTime(finishedRaw)
	return &entry, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
