package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  AC/DC: Live?  ", "AC-DC- Live"},
		{"Best <Of> \"Hits\"|", "Best Of Hits"},
		{"trailing dots...", "trailing dots"},
		{"tab\tinside", "tabinside"},
		{"Cafe\u0301 del Mar", "Caf\u00e9 del Mar"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTrackFileName(t *testing.T) {
	if got := TrackFileName("Best Of", 3, "flac"); got != "Best Of - Track 03.flac" {
		t.Fatalf("got %q", got)
	}
	if got := TrackFileName("", 12, ".wav"); got != "audio - Track 12.wav" {
		t.Fatalf("got %q", got)
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("/music/Best: Of.nrg"); got != "Best- Of" {
		t.Fatalf("got %q", got)
	}
	if got := BaseName("/music/???.cue"); got != "audio" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(" Disc #1 "); got != "disc__1" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeToken("!!!"); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}
