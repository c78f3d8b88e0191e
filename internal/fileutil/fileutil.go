// Package fileutil holds the small file operations extraction shares.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CopyBlockSize is the buffer used by CopyRange.
const CopyBlockSize = 1 << 20

// CopyRange writes length bytes of src starting at offset to dst, creating or
// truncating it. dst is removed whenever the copy does not complete, including
// when src ends before the range does.
func CopyRange(src io.ReaderAt, offset, length int64, dst string) (written int64, err error) {
	if offset < 0 || length < 0 {
		return 0, fmt.Errorf("copy range: invalid offset=%d length=%d", offset, length)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	written, err = io.CopyBuffer(out, io.NewSectionReader(src, offset, length), make([]byte, CopyBlockSize))
	if err == nil && written != length {
		err = fmt.Errorf("copy range: source ended after %d of %d bytes", written, length)
	}
	return written, err
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
