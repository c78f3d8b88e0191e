package cuesheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode returns the sheet text as UTF-8. Byte order marks select UTF-8 or
// UTF-16, BOM-less valid UTF-8 is used as is, and anything else is decoded
// with the named fallback encoding (WHATWG label, e.g. "windows-1252",
// "shift_jis").
func Decode(data []byte, fallback string) (string, error) {
	if bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("cuesheet: decode unicode: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, err := htmlindex.Get(fallback)
	if err != nil {
		return "", fmt.Errorf("cuesheet: fallback encoding %q: %w", fallback, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("cuesheet: decode %s: %w", fallback, err)
	}
	return string(out), nil
}
