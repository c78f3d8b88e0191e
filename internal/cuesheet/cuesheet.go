// Package cuesheet parses CUE sheets that describe tracks inside one raw
// CD-DA image.
package cuesheet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"autosplit/internal/services"
)

const (
	// FramesPerSecond is the CD time-code frame rate.
	FramesPerSecond = 75
	// BytesPerSecond is the data rate of 44.1 kHz, 16-bit, stereo PCM.
	BytesPerSecond = 44100 * 2 * 2
)

// ErrMalformed reports a sheet without a FILE line or without any track.
var ErrMalformed = fmt.Errorf("cuesheet: malformed sheet: %w", services.ErrParse)

// Track is one INDEX 01 entry. End is only meaningful when HasEnd is set;
// the last track of a sheet stays open until Resolve.
type Track struct {
	Number int
	Start  float64
	End    float64
	HasEnd bool
}

// Sheet is a parsed cue sheet.
type Sheet struct {
	File   string
	Tracks []Track
}

// Span is a resolved track interval in seconds. OpenEnd marks the final
// track whose end came from the media duration rather than the sheet; End is
// zero when that duration was unknown.
type Span struct {
	Number  int
	Start   float64
	End     float64
	OpenEnd bool
}

// Parse reads a sheet line by line. Damaged TRACK or INDEX lines are skipped
// so one bad line does not void the sheet.
func Parse(r io.Reader) (Sheet, error) {
	var sheet Sheet
	current := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "FILE":
			if sheet.File == "" {
				sheet.File = fileName(line, fields)
			}
		case "TRACK":
			if len(fields) < 2 {
				continue
			}
			if n, err := strconv.Atoi(fields[1]); err == nil {
				current = n
			}
		case "INDEX":
			if len(fields) < 3 || fields[1] != "01" {
				continue
			}
			seconds, err := ParseTimestamp(fields[2])
			if err != nil {
				continue
			}
			if n := len(sheet.Tracks); n > 0 && !sheet.Tracks[n-1].HasEnd {
				sheet.Tracks[n-1].End = seconds
				sheet.Tracks[n-1].HasEnd = true
			}
			sheet.Tracks = append(sheet.Tracks, Track{Number: current, Start: seconds})
		}
	}
	if err := scanner.Err(); err != nil {
		return sheet, fmt.Errorf("cuesheet: read: %w", err)
	}
	if sheet.File == "" || len(sheet.Tracks) == 0 {
		return sheet, ErrMalformed
	}
	return sheet, nil
}

// ParseFile decodes and parses the sheet at path. fallbackEncoding is used
// for sheets that are not valid UTF-8.
func ParseFile(path, fallbackEncoding string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("cuesheet: %w", err)
	}
	text, err := Decode(data, fallbackEncoding)
	if err != nil {
		return Sheet{}, err
	}
	return Parse(strings.NewReader(text))
}

// fileName extracts the quoted file name of a FILE line, tolerating
// unquoted names.
func fileName(line string, fields []string) string {
	if first := strings.IndexByte(line, '"'); first >= 0 {
		if last := strings.LastIndexByte(line, '"'); last > first {
			return line[first+1 : last]
		}
	}
	if len(fields) < 2 {
		return ""
	}
	name := fields[1:]
	if len(name) > 1 {
		name = name[:len(name)-1]
	}
	return strings.Trim(strings.Join(name, " "), `"`)
}

var errTimestamp = errors.New("cuesheet: invalid timestamp")

// ParseTimestamp converts mm:ss:ff to seconds.
func ParseTimestamp(value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, errTimestamp
	}
	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errTimestamp
		}
		nums[i] = n
	}
	if nums[1] >= 60 || nums[2] >= FramesPerSecond {
		return 0, errTimestamp
	}
	return float64(nums[0]*60+nums[1]) + float64(nums[2])/FramesPerSecond, nil
}

// Resolve closes the open last track at total seconds and returns the
// playable spans in sheet order. Closed spans with end <= start are dropped.
func (s Sheet) Resolve(total float64) []Span {
	spans := make([]Span, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		span := Span{Number: t.Number, Start: t.Start, End: t.End}
		if !t.HasEnd {
			span.OpenEnd = true
			span.End = 0
			if total > t.Start {
				span.End = total
			}
			spans = append(spans, span)
			continue
		}
		if span.End <= span.Start {
			continue
		}
		spans = append(spans, span)
	}
	return spans
}

// RawSeconds is the duration of a raw 44.1 kHz/16-bit/stereo image of size bytes.
func RawSeconds(size int64) float64 {
	if size <= 0 {
		return 0
	}
	return float64(size) / BytesPerSecond
}
