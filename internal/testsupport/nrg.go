package testsupport

import (
	"encoding/binary"
	"path/filepath"
	"testing"
)

// NRGChunk is one chunk written into a synthetic NRG chain.
type NRGChunk struct {
	ID      string
	Payload []byte
	// DeclaredSize overrides the header size when non-zero.
	DeclaredSize uint32
}

// NRGSpec describes a synthetic NER5 image. The chain starts right after Data.
type NRGSpec struct {
	Data    []byte
	Chunks  []NRGChunk
	OmitEnd bool
	// Tag replaces the NER5 footer tag when set.
	Tag string
	// ChainOffset replaces the computed footer offset when non-zero.
	ChainOffset uint64
}

// Build serializes the spec.
func (s NRGSpec) Build() []byte {
	out := append([]byte{}, s.Data...)
	chain := uint64(len(out))
	for _, chunk := range s.Chunks {
		out = appendChunk(out, chunk)
	}
	if !s.OmitEnd {
		out = appendChunk(out, NRGChunk{ID: "END!"})
	}
	tag := s.Tag
	if tag == "" {
		tag = "NER5"
	}
	if s.ChainOffset != 0 {
		chain = s.ChainOffset
	}
	out = append(out, []byte(tag)[:4]...)
	return binary.BigEndian.AppendUint64(out, chain)
}

func appendChunk(out []byte, chunk NRGChunk) []byte {
	size := chunk.DeclaredSize
	if size == 0 {
		size = uint32(len(chunk.Payload))
	}
	out = append(out, []byte(chunk.ID)[:4]...)
	out = binary.BigEndian.AppendUint32(out, size)
	return append(out, chunk.Payload...)
}

// CUEXPayload encodes one 8-byte record per sector (audio mode, index 1).
func CUEXPayload(sectors ...uint32) []byte {
	out := make([]byte, 0, len(sectors)*8)
	for i, sector := range sectors {
		out = append(out, 0x01, byte(i+1), 0x00, 0x00)
		out = binary.BigEndian.AppendUint32(out, sector)
	}
	return out
}

// WriteNRG writes spec to dir/name and returns the path.
func WriteNRG(t testing.TB, dir, name string, spec NRGSpec) string {
	t.Helper()
	return WriteBytes(t, filepath.Join(dir, name), spec.Build())
}
