package nrg

import (
	"encoding/binary"
	"slices"
)

const cueEntrySize = 8

// CueEntry is one 8-byte CUEX record.
type CueEntry struct {
	Mode   uint8
	Index  uint8
	Sector uint32
}

// Boundary is a half-open sector range [StartSector, EndSector).
type Boundary struct {
	StartSector uint32
	EndSector   uint32
}

// ByteOffset is the position of the first byte of the track in the image.
func (b Boundary) ByteOffset() int64 { return int64(b.StartSector) * SectorSize }

// ByteLength is the number of raw bytes in the track.
func (b Boundary) ByteLength() int64 {
	return int64(b.EndSector-b.StartSector) * SectorSize
}

// Seconds is the playing time of the track at 75 sectors per second.
func (b Boundary) Seconds() float64 {
	return float64(b.EndSector-b.StartSector) / 75
}

// DecodeCueEntries splits a CUEX payload into records. A trailing partial
// record is ignored.
func DecodeCueEntries(payload []byte) []CueEntry {
	entries := make([]CueEntry, 0, len(payload)/cueEntrySize)
	for off := 0; off+cueEntrySize <= len(payload); off += cueEntrySize {
		rec := payload[off : off+cueEntrySize]
		entries = append(entries, CueEntry{
			Mode:   rec[0],
			Index:  rec[1],
			Sector: binary.BigEndian.Uint32(rec[4:]),
		})
	}
	return entries
}

// DecodeCueIndex turns a CUEX payload into track boundaries. Pre-gap
// sentinels are dropped and the remaining distinct sectors are paired in
// ascending order, so N distinct sectors give N-1 boundaries.
func DecodeCueIndex(payload []byte) []Boundary {
	entries := DecodeCueEntries(payload)
	sectors := make([]uint32, 0, len(entries))
	for _, entry := range entries {
		if entry.Sector >= PregapSentinel {
			continue
		}
		sectors = append(sectors, entry.Sector)
	}
	slices.Sort(sectors)
	sectors = slices.Compact(sectors)

	boundaries := make([]Boundary, 0, max(len(sectors)-1, 0))
	for i := 0; i+1 < len(sectors); i++ {
		if sectors[i+1] <= sectors[i] {
			continue
		}
		boundaries = append(boundaries, Boundary{StartSector: sectors[i], EndSector: sectors[i+1]})
	}
	return boundaries
}
