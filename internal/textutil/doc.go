// Package textutil builds filesystem-safe output names.
//
// Names are normalized to Unicode NFC before unsafe characters are replaced,
// so titles decoded from legacy cue sheets and names read from mounted
// volumes compare equal regardless of how their accents were composed.
package textutil
