package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"autosplit/internal/journal"
	"autosplit/internal/preflight"
	"autosplit/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report tool availability, directories, history and scratch usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize))
			configMsg := ctx.configPath
			if !ctx.configExists {
				configMsg += " (not found, defaults in use)"
			}
			lines = append(lines, renderStatusLine("Config", statusInfo, configMsg, colorize))
			lines = append(lines, renderStatusLine("Mount backend", statusInfo, cfg.Mount.Backend, colorize))
			lines = append(lines, renderStatusLine("Output format", statusInfo, cfg.Extraction.Format, colorize))

			lines = append(lines, renderSectionHeader("Dependencies", colorize))
			missingRequired := false
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				msg := dep.Path
				if !dep.Available {
					msg = dep.Detail
					if dep.Optional {
						kind = statusWarn
						msg += " (optional)"
					} else {
						kind = statusError
						missingRequired = true
					}
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, msg, colorize))
			}

			lines = append(lines, renderSectionHeader("Directories", colorize))
			dirs := []preflight.Result{
				preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
				preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
			}
			if cfg.Paths.TempDir != "" {
				dirs = append(dirs, preflight.CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
			}
			for _, r := range dirs {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			lines = append(lines, renderSectionHeader("History", colorize))
			err = ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				counts, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				statuses := make([]string, 0, len(counts))
				for status := range counts {
					statuses = append(statuses, string(status))
				}
				sort.Strings(statuses)
				if len(statuses) == 0 {
					lines = append(lines, renderStatusLine("Journal", statusInfo, "empty", colorize))
				}
				for _, status := range statuses {
					lines = append(lines, renderStatusLine(status, statusInfo, fmt.Sprint(counts[journal.Status(status)]), colorize))
				}
				return nil
			})
			if err != nil {
				lines = append(lines, renderStatusLine("Journal", statusError, err.Error(), colorize))
			}

			if cfg.Paths.TempDir != "" || outputDir != "" {
				root := cfg.ScratchRoot(outputDir)
				lines = append(lines, renderSectionHeader("Scratch", colorize))
				scratch, err := staging.ListDirectories(root)
				switch {
				case err != nil:
					lines = append(lines, renderStatusLine("Scratch", statusError, err.Error(), colorize))
				case len(scratch) == 0:
					lines = append(lines, renderStatusLine(root, statusOK, "empty", colorize))
				default:
					var total int64
					for _, d := range scratch {
						total += d.Size
					}
					lines = append(lines, renderStatusLine(root, statusWarn,
						fmt.Sprintf("%d leftover directories, %s", len(scratch), humanize.IBytes(uint64(total))), colorize))
				}
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if missingRequired {
				return fmt.Errorf("required dependencies missing")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory whose scratch area to report")
	return cmd
}
