// Package silence turns decoder silence-detection logs into track segments.
package silence

import (
	"bufio"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// PrerollLimit is the latest silence end still treated as lead-in.
const PrerollLimit = 1.0

// Options configures silence detection.
type Options struct {
	ThresholdDB float64
	MinDuration float64
}

// DefaultOptions mirror the processing defaults of -40 dB over 2 seconds.
func DefaultOptions() Options {
	return Options{ThresholdDB: -40, MinDuration: 2.0}
}

// Filter renders the silencedetect filter expression.
func (o Options) Filter() string {
	return "silencedetect=noise=" + strconv.FormatFloat(o.ThresholdDB, 'f', -1, 64) +
		"dB:d=" + strconv.FormatFloat(o.MinDuration, 'f', -1, 64)
}

// Log holds silence boundaries in seconds, each list sorted ascending.
type Log struct {
	Starts []float64
	Ends   []float64
}

// Segment is a half-open [Start, End) interval in seconds.
type Segment struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// number matches decimal and %g exponent forms such as 2.26757e-05.
const number = `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`

var (
	startPattern    = regexp.MustCompile(`silence_start:\s*(` + number + `)`)
	endPattern      = regexp.MustCompile(`silence_end:\s*(` + number + `)`)
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// ParseLog collects silence_start and silence_end values from decoder
// diagnostics. Unrelated lines are ignored.
func ParseLog(text string) Log {
	var log Log
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if m := startPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				log.Starts = append(log.Starts, v)
			}
		}
		if m := endPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				log.Ends = append(log.Ends, v)
			}
		}
	}
	slices.Sort(log.Starts)
	slices.Sort(log.Ends)
	return log
}

// ParseDuration extracts the first "Duration: HH:MM:SS.ff" value in seconds.
// It reports false when the line is missing.
func ParseDuration(text string) (float64, bool) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}

// Split converts silences into audible segments of a file total seconds
// long. A silence ending before PrerollLimit is lead-in: it is dropped and
// the first segment starts where it ends. Matched start/end pairs then split
// the stream, skipping zero-length segments, and whatever follows the last
// silence up to total becomes the final segment. No segments is a valid
// result.
func Split(log Log, total float64) []Segment {
	starts := slices.Clone(log.Starts)
	ends := slices.Clone(log.Ends)
	slices.Sort(starts)
	slices.Sort(ends)

	pos := 0.0
	if len(ends) > 0 && ends[0] < PrerollLimit {
		pos = ends[0]
		ends = ends[1:]
		if len(starts) > 0 && starts[0] < PrerollLimit {
			starts = starts[1:]
		}
	}

	var segments []Segment
	for i := range min(len(starts), len(ends)) {
		gapStart, gapEnd := starts[i], ends[i]
		if gapStart > pos {
			segments = append(segments, Segment{Start: pos, End: gapStart})
		}
		pos = gapEnd
	}
	if total > pos {
		segments = append(segments, Segment{Start: pos, End: total})
	}
	return segments
}
