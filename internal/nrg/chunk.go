package nrg

import (
	"encoding/binary"
	"io"
)

const (
	chunkHeaderSize = 8
	endChunkID      = "END!"
	cueChunkID      = "CUEX"
	// maxPayloadRead bounds Payload allocations; track data is never read
	// through the chunk API.
	maxPayloadRead = 16 << 20
)

// Chunk is one entry in the NER5 chain. Offset is where the payload starts.
type Chunk struct {
	ID     string
	Size   uint32
	Offset int64
}

// Walker iterates the chunk chain. It is forward-only and finite: it stops at
// the END! marker, when the position reaches the limit, or on the first
// structural error. A Walker cannot be restarted; build a new one instead.
type Walker struct {
	r     io.ReaderAt
	limit int64
	pos   int64
	cur   Chunk
	err   error
	done  bool
}

// NewWalker starts a walk at chainOffset. Reads never go past limit, which is
// normally the offset of the footer.
func NewWalker(r io.ReaderAt, limit int64, chainOffset uint64) *Walker {
	w := &Walker{r: r, limit: limit, pos: int64(chainOffset)}
	if chainOffset > uint64(limit) {
		w.err = parseErr("walk chunks", int64(chainOffset), "chain starts past limit %d", limit)
		w.done = true
	}
	return w
}

// Next advances to the next chunk and reports whether one is available.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	if w.pos >= w.limit {
		w.done = true
		return false
	}
	var hdr [chunkHeaderSize]byte
	if err := readFull(w.r, w.limit, w.pos, hdr[:], "chunk header"); err != nil {
		return w.fail(err)
	}
	id := string(hdr[:4])
	size := binary.BigEndian.Uint32(hdr[4:])
	if id == endChunkID {
		w.done = true
		return false
	}
	payload := w.pos + chunkHeaderSize
	end := payload + int64(size)
	if end > w.limit {
		return w.fail(parseErr("read chunk "+id, payload, "declared size %d runs past %d", size, w.limit))
	}
	w.cur = Chunk{ID: id, Size: size, Offset: payload}
	w.pos = end
	return true
}

func (w *Walker) fail(err error) bool {
	w.err = err
	w.done = true
	return false
}

// Chunk returns the current chunk.
func (w *Walker) Chunk() Chunk { return w.cur }

// Payload reads the current chunk's payload.
func (w *Walker) Payload() ([]byte, error) {
	if w.cur.Size > maxPayloadRead {
		return nil, parseErr("read chunk "+w.cur.ID, w.cur.Offset, "payload of %d bytes too large", w.cur.Size)
	}
	buf := make([]byte, w.cur.Size)
	if err := readFull(w.r, w.limit, w.cur.Offset, buf, "chunk "+w.cur.ID); err != nil {
		return nil, err
	}
	return buf, nil
}

// Err returns the error that ended the walk, if any.
func (w *Walker) Err() error { return w.err }
