package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autosplit/internal/journal"
	"autosplit/internal/workflow"
)

type extractItemJSON struct {
	Input       string   `json:"input"`
	Status      string   `json:"status"`
	Kind        string   `json:"kind"`
	Strategy    string   `json:"strategy,omitempty"`
	DiscType    string   `json:"disc_type,omitempty"`
	Files       []string `json:"files"`
	Reason      string   `json:"reason,omitempty"`
	Error       string   `json:"error,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	ElapsedMS   int64    `json:"elapsed_ms"`
}

type extractSummaryJSON struct {
	RunID     string            `json:"run_id"`
	OutputDir string            `json:"output_dir"`
	Items     []extractItemJSON `json:"items"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var workers int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Split one or more inputs into per-track audio files",
		Long: "Split NRG images, cue+bin pairs, disc images and long audio files into per-track files.\n" +
			"Inputs are processed one after another; an input that yields nothing does not stop the batch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Extraction.Workers = workers
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			tools, err := buildToolchain(cfg, logger)
			if err != nil {
				return err
			}

			return ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				mgr := workflow.NewManager(cfg, tools.extractor(cfg, logger), store, logger)
				summary, runErr := mgr.Run(cmd.Context(), args, outputDir)
				if len(summary.Items) > 0 {
					if jsonOutput {
						if err := writeJSON(cmd, summaryJSON(summary)); err != nil {
							return err
						}
					} else {
						printSummary(cmd, summary)
					}
				}
				if runErr != nil {
					return runErr
				}
				if !summary.Clean() {
					return fmt.Errorf("batch incomplete: %d without audio, %d failed",
						summary.Count(journal.StatusNoAudio), summary.Count(journal.StatusFailed))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory receiving the track files")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent track encodes per input")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the batch summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary workflow.Summary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		rows = append(rows, []string{
			filepath.Base(item.Input),
			string(item.Status),
			item.Result.Strategy,
			strconv.Itoa(len(item.Result.Files)),
			itemDetail(item),
			item.Elapsed.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Input", "Status", "Strategy", "Tracks", "Detail", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "%d tracks in %s (run %s)\n", len(summary.Files()), summary.OutputDir, summary.RunID)
}

func itemDetail(item workflow.Item) string {
	switch {
	case item.Err != nil:
		return item.Err.Error()
	case item.Result.Reason != nil:
		return string(item.Result.Reason.Cause)
	case item.Status == journal.StatusSkipped:
		return "already processed"
	default:
		return ""
	}
}

func summaryJSON(summary workflow.Summary) extractSummaryJSON {
	payload := extractSummaryJSON{
		RunID:     summary.RunID,
		OutputDir: summary.OutputDir,
		Items:     make([]extractItemJSON, 0, len(summary.Items)),
		ElapsedMS: summary.Elapsed.Milliseconds(),
	}
	for _, item := range summary.Items {
		entry := extractItemJSON{
			Input:       item.Input,
			Status:      string(item.Status),
			Kind:        item.Result.Kind.String(),
			Strategy:    item.Result.Strategy,
			Files:       item.Result.Files,
			Fingerprint: item.Fingerprint,
			ElapsedMS:   item.Elapsed.Milliseconds(),
		}
		if entry.Files == nil {
			entry.Files = []string{}
		}
		if dt := item.Result.DiscType.String(); dt != "unknown" {
			entry.DiscType = dt
		}
		if item.Result.Reason != nil {
			entry.Reason = string(item.Result.Reason.Cause)
		}
		if item.Err != nil {
			entry.Error = strings.TrimSpace(item.Err.Error())
		}
		payload.Items = append(payload.Items, entry)
	}
	return payload
}
