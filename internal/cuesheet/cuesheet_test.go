package cuesheet

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"autosplit/internal/services"
)

const twoTrackSheet = `REM GENRE Pop
PERFORMER "Various"
FILE "Best Of.bin" BINARY
  TRACK 01 AUDIO
    TITLE "One"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 03:30:00
    INDEX 01 03:32:10
`

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseTwoTracks(t *testing.T) {
	sheet, err := Parse(strings.NewReader(twoTrackSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.File != "Best Of.bin" {
		t.Fatalf("file = %q", sheet.File)
	}
	if len(sheet.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %+v", sheet.Tracks)
	}
	second := 3*60 + 32 + 10.0/75
	first := sheet.Tracks[0]
	if first.Number != 1 || first.Start != 0 || !first.HasEnd || !approx(first.End, second) {
		t.Fatalf("unexpected first track %+v", first)
	}
	last := sheet.Tracks[1]
	if last.Number != 2 || !approx(last.Start, second) || last.HasEnd {
		t.Fatalf("unexpected last track %+v", last)
	}
}

func TestParseSkipsDamagedLines(t *testing.T) {
	text := `FILE "disc.bin" BINARY
TRACK 01 AUDIO
INDEX 01 00:00:00
TRACK 02 AUDIO
INDEX 01 xx:00:00
TRACK zz AUDIO
INDEX 01 01:00:00
TRACK 03 AUDIO
INDEX 01 02:00:74
`
	sheet, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sheet.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %+v", sheet.Tracks)
	}
	if sheet.Tracks[1].Number != 2 || sheet.Tracks[1].Start != 60 {
		t.Fatalf("damaged TRACK line should keep previous number: %+v", sheet.Tracks[1])
	}
	if !approx(sheet.Tracks[2].Start, 120+74.0/75) {
		t.Fatalf("unexpected start %v", sheet.Tracks[2].Start)
	}
}

func TestParseFirstFileWinsAndUnquotedNames(t *testing.T) {
	sheet, err := Parse(strings.NewReader("FILE image one.bin BINARY\nFILE \"other.bin\" BINARY\nTRACK 01 AUDIO\nINDEX 01 00:00:00\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.File != "image one.bin" {
		t.Fatalf("file = %q", sheet.File)
	}
}

func TestParseMalformed(t *testing.T) {
	for name, text := range map[string]string{
		"no file":   "TRACK 01 AUDIO\nINDEX 01 00:00:00\n",
		"no tracks": "FILE \"a.bin\" BINARY\nTRACK 01 AUDIO\n",
		"empty":     "",
	} {
		if _, err := Parse(strings.NewReader(text)); !errors.Is(err, ErrMalformed) || !errors.Is(err, services.ErrParse) {
			t.Fatalf("%s: expected malformed, got %v", name, err)
		}
	}
}

func TestParseOrderPreserving(t *testing.T) {
	var b strings.Builder
	b.WriteString("FILE \"x.bin\" BINARY\n")
	const k = 25
	for i := 1; i <= k; i++ {
		fmt.Fprintf(&b, "  TRACK %02d AUDIO\n    INDEX 01 %02d:%02d:%02d\n", i, i*2, i%60, i%75)
	}
	sheet, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sheet.Tracks) != k {
		t.Fatalf("expected %d tracks, got %d", k, len(sheet.Tracks))
	}
	for i := 0; i < k-1; i++ {
		cur, next := sheet.Tracks[i], sheet.Tracks[i+1]
		if next.Start <= cur.Start {
			t.Fatalf("starts not increasing at %d", i)
		}
		if !cur.HasEnd || cur.End != next.Start {
			t.Fatalf("track %d end %v does not meet next start %v", i, cur.End, next.Start)
		}
	}
	if sheet.Tracks[k-1].HasEnd {
		t.Fatal("last track must stay open")
	}
}

func TestResolve(t *testing.T) {
	sheet := Sheet{File: "x.bin", Tracks: []Track{
		{Number: 1, Start: 0, End: 100, HasEnd: true},
		{Number: 2, Start: 100, End: 100, HasEnd: true},
		{Number: 3, Start: 100},
	}}
	spans := sheet.Resolve(250)
	want := []Span{{Number: 1, Start: 0, End: 100}, {Number: 3, Start: 100, End: 250, OpenEnd: true}}
	if len(spans) != len(want) {
		t.Fatalf("spans = %+v", spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Fatalf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
	if unknown := sheet.Resolve(0); unknown[len(unknown)-1].End != 0 || !unknown[len(unknown)-1].OpenEnd {
		t.Fatalf("unknown duration should leave end unset: %+v", unknown)
	}
}

func TestRawSeconds(t *testing.T) {
	if got := RawSeconds(176400 * 3); got != 3 {
		t.Fatalf("RawSeconds = %v, want 3", got)
	}
	if RawSeconds(-1) != 0 {
		t.Fatal("negative sizes must yield zero")
	}
}

func TestDecodeLegacyAndBOM(t *testing.T) {
	legacy, err := charmap.Windows1252.NewEncoder().String("FILE \"Café.bin\" BINARY\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text, err := Decode([]byte(legacy), "windows-1252")
	if err != nil {
		t.Fatalf("Decode legacy: %v", err)
	}
	if !strings.Contains(text, "Café.bin") {
		t.Fatalf("legacy decode = %q", text)
	}

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("FILE \"Phạm Duy.bin\" BINARY\n")
	if err != nil {
		t.Fatalf("encode utf16: %v", err)
	}
	text, err = Decode([]byte(utf16), "windows-1252")
	if err != nil {
		t.Fatalf("Decode utf16: %v", err)
	}
	if !strings.HasPrefix(text, "FILE \"Phạm Duy.bin\"") {
		t.Fatalf("utf16 decode = %q", text)
	}

	text, err = Decode(append([]byte{0xEF, 0xBB, 0xBF}, "TRACK 01 AUDIO"...), "windows-1252")
	if err != nil || text != "TRACK 01 AUDIO" {
		t.Fatalf("utf8 BOM decode = %q, %v", text, err)
	}

	if _, err := Decode([]byte{0xff, 0xfe, 0xfd}[1:], "no-such-charset"); err == nil {
		t.Fatal("expected error for unknown fallback encoding")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.cue")
	if err := os.WriteFile(path, []byte(twoTrackSheet), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sheet, err := ParseFile(path, "windows-1252")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(sheet.Tracks) != 2 {
		t.Fatalf("unexpected tracks %+v", sheet.Tracks)
	}
}
