package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"autosplit/internal/cuesheet"
	"autosplit/internal/extract"
	"autosplit/internal/nrg"
	"autosplit/internal/silence"
	"autosplit/internal/volume"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "inspect <image|mounted-dir>",
		Short: "Mount a disc image and report what it contains",
		Long: "Mount a disc image and report what it contains.\n\n" +
			"A directory argument is treated as an already-mounted volume and is read in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			if info, err := os.Stat(target); err == nil && info.IsDir() {
				return reportVolume(cmd.OutOrStdout(), target, "directory", target,
					os.DirFS(target), volume.IdentifyPath(target))
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Mount.Backend = backend
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			mounter, err := newMounter(cfg, logger)
			if err != nil {
				return err
			}

			vol, err := mounter.Mount(cmd.Context(), target)
			if err != nil {
				return err
			}
			defer mounter.Unmount(cmd.Context(), target)
			return reportVolume(cmd.OutOrStdout(), target, vol.Backend, vol.Root, vol.FS, vol.Identify())
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Mount backend override (auto, udisks, powershell, diskfs)")
	return cmd
}

func reportVolume(out io.Writer, image, backend, root string, fsys fs.FS, discType volume.DiscType) error {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderSectionHeader("Volume", colorize))
	fmt.Fprintln(out, renderStatusLine("Image", statusInfo, image, colorize))
	fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, backend, colorize))
	if root != "" {
		fmt.Fprintln(out, renderStatusLine("Mounted at", statusInfo, root, colorize))
	}
	kind := statusOK
	if discType == volume.Data || discType == volume.Unknown {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Disc type", kind, discType.String(), colorize))

	if discType != volume.AudioCD {
		return nil
	}
	tracks, err := volume.TrackFiles(fsys)
	if err != nil {
		return fmt.Errorf("list tracks: %w", err)
	}
	rows := make([][]string, 0, len(tracks))
	for i, name := range tracks {
		rows = append(rows, []string{strconv.Itoa(i + 1), name})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "File"}, rows, []columnAlignment{alignRight, alignLeft}))
	return nil
}

func newNRGCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "nrg <file>",
		Short:       "Show the footer, chunk chain and track table of an NRG image",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := nrg.Open(args[0])
			if err != nil {
				return err
			}
			defer img.Close()

			out := cmd.OutOrStdout()
			footer, err := img.Footer()
			if err != nil {
				if errors.Is(err, nrg.ErrUnsupported) {
					return fmt.Errorf("%s is not a NER5 container (footer tag %q): %w", args[0], footer.Tag, err)
				}
				return err
			}
			fmt.Fprintf(out, "Footer: %s, chain at %d, payload %d bytes\n", footer.Tag, footer.ChainOffset, img.PayloadLength())

			chunks, walkErr := img.Chunks()
			rows := make([][]string, 0, len(chunks))
			for _, c := range chunks {
				rows = append(rows, []string{c.ID, strconv.FormatInt(c.Offset, 10), strconv.FormatUint(uint64(c.Size), 10)})
			}
			fmt.Fprintln(out, renderTable([]string{"Chunk", "Offset", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			if walkErr != nil {
				fmt.Fprintf(out, "Chunk chain damaged: %v\n", walkErr)
			}

			tracks, err := img.Tracks()
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				fmt.Fprintln(out, "No track table (no CUEX chunk)")
				return nil
			}
			rows = rows[:0]
			for i, b := range tracks {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.FormatUint(uint64(b.StartSector), 10),
					strconv.FormatUint(uint64(b.EndSector), 10),
					strconv.FormatInt(b.ByteOffset(), 10),
					strconv.FormatInt(b.ByteLength(), 10),
					formatClock(b.Seconds()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Track", "Start", "End", "Offset", "Bytes", "Length"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newCueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cue <file>",
		Short: "Parse a cue sheet and show the resolved track spans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sheet, err := cuesheet.ParseFile(args[0], cfg.Cue.FallbackEncoding)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var total float64
			if raw := extract.LocateRawImage(args[0], sheet.File); raw != "" {
				if info, err := os.Stat(raw); err == nil {
					total = cuesheet.RawSeconds(info.Size())
				}
				fmt.Fprintf(out, "Raw image: %s (%s)\n", raw, formatClock(total))
			} else {
				fmt.Fprintf(out, "Raw image: %s not found\n", sheet.File)
			}

			spans := sheet.Resolve(total)
			rows := make([][]string, 0, len(spans))
			for _, span := range spans {
				end, length := formatClock(span.End), formatClock(span.End-span.Start)
				if span.OpenEnd && span.End == 0 {
					end, length = "end", "?"
				}
				rows = append(rows, []string{strconv.Itoa(span.Number), formatClock(span.Start), end, length})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Track", "Start", "End", "Length"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newSilenceCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var minDuration float64

	cmd := &cobra.Command{
		Use:   "silence <audio>",
		Short: "Detect silence in an audio file and show the tracks it would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := silenceOptions(cfg)
			if cmd.Flags().Changed("threshold") {
				opts.ThresholdDB = threshold
			}
			if cmd.Flags().Changed("min-duration") {
				opts.MinDuration = minDuration
			}
			ff, err := newFFmpeg(cfg)
			if err != nil {
				return err
			}

			log, total, err := ff.DetectSilence(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			segments := silence.Split(log, total)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Duration %s, %d silences (%s)\n", formatClock(total), len(log.Starts), opts.Filter())
			if len(segments) == 0 {
				fmt.Fprintln(out, "No track boundaries found")
				return nil
			}
			rows := make([][]string, 0, len(segments))
			for i, seg := range segments {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatClock(seg.Start),
					formatClock(seg.End),
					formatClock(seg.Duration()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Track", "Start", "End", "Length"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Noise floor in dB (overrides silence.threshold_db)")
	cmd.Flags().Float64Var(&minDuration, "min-duration", 0, "Minimum gap in seconds (overrides silence.min_duration)")
	return cmd
}

// formatClock renders seconds as m:ss.mmm.
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	minutes := int(d / time.Minute)
	rest := d - time.Duration(minutes)*time.Minute
	return fmt.Sprintf("%d:%06.3f", minutes, rest.Seconds())
}
