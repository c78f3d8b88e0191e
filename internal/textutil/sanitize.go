package textutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fallbackBase names outputs whose source name sanitizes to nothing.
const fallbackBase = "audio"

// safeRune maps one rune of a file name: separators and wildcards become
// dashes, quoting and redirection characters and controls are dropped.
func safeRune(r rune) rune {
	switch r {
	case '/', '\\', ':', '*':
		return '-'
	case '?', '"', '<', '>', '|':
		return -1
	}
	if r < 0x20 || r == 0x7f {
		return -1
	}
	return r
}

// SanitizeFileName makes name safe on every supported filesystem. The result
// is NFC-normalized and trimmed of surrounding spaces and dots; it may be
// empty.
func SanitizeFileName(name string) string {
	name = strings.Map(safeRune, norm.NFC.String(name))
	return strings.Trim(name, ". \t")
}

// BaseName is the sanitized file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return orFallback(SanitizeFileName(strings.TrimSuffix(base, filepath.Ext(base))))
}

// TrackFileName builds "<base> - Track NN.<ext>".
func TrackFileName(base string, number int, ext string) string {
	return fmt.Sprintf("%s - Track %02d.%s", orFallback(SanitizeFileName(base)), number, strings.TrimPrefix(ext, "."))
}

func orFallback(name string) string {
	if name == "" {
		return fallbackBase
	}
	return name
}

// SanitizeToken lowercases ASCII letters, keeps digits, '-' and '_', and
// turns everything else into '_'. Scratch directory prefixes use it.
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
