package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autosplit/internal/journal"
)

type historyEntryJSON struct {
	ID         int64    `json:"id"`
	RunID      string   `json:"run_id"`
	Input      string   `json:"input"`
	OutputDir  string   `json:"output_dir,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
	DiscType   string   `json:"disc_type,omitempty"`
	Status     string   `json:"status"`
	Files      []string `json:"files"`
	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				entries, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					payload := make([]historyEntryJSON, 0, len(entries))
					for _, e := range entries {
						payload = append(payload, historyJSON(e))
					}
					return writeJSON(cmd, payload)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					detail := e.Reason
					if e.Error != "" {
						detail = e.Error
					}
					rows = append(rows, []string{
						e.FinishedAt.Local().Format("2006-01-02 15:04"),
						filepath.Base(e.Input),
						string(e.Status),
						e.Strategy,
						strconv.Itoa(len(e.Files)),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Finished", "Input", "Status", "Strategy", "Tracks", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history entries older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Age of the oldest entry to keep")
	return cmd
}

func historyJSON(e journal.Entry) historyEntryJSON {
	files := e.Files
	if files == nil {
		files = []string{}
	}
	return historyEntryJSON{
		ID:         e.ID,
		RunID:      e.RunID,
		Input:      e.Input,
		OutputDir:  e.OutputDir,
		Kind:       e.Kind,
		Strategy:   e.Strategy,
		DiscType:   e.DiscType,
		Status:     string(e.Status),
		Files:      files,
		Reason:     e.Reason,
		Error:      strings.TrimSpace(e.Error),
		StartedAt:  e.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: e.FinishedAt.UTC().Format(time.RFC3339),
	}
}
