package nrg

import (
	"errors"
	"io"
)

// readFull reads exactly len(buf) bytes at off, staying inside limit. what
// names the structure for error messages.
func readFull(r io.ReaderAt, limit, off int64, buf []byte, what string) error {
	if off < 0 || off+int64(len(buf)) > limit {
		return parseErr("read "+what, off, "need %d bytes, %d available: %w",
			len(buf), max(limit-off, 0), io.ErrUnexpectedEOF)
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{Op: "read " + what, Offset: off, Err: err}
}
