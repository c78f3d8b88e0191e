package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
)

// SampleSize is the number of bytes hashed from each end of the file.
const SampleSize = 64 * 1024

// File returns the hex fingerprint of the file at path.
func File(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	return Reader(file, info.Size())
}

// Reader fingerprints size bytes readable from r.
func Reader(r io.ReaderAt, size int64) (string, error) {
	h := sha256.New()
	_, _ = h.Write([]byte(strconv.FormatInt(size, 10)))
	_, _ = h.Write([]byte{0})

	head := min(size, SampleSize)
	if err := appendRange(h, r, 0, head); err != nil {
		return "", err
	}
	// Small files are covered entirely by the head sample.
	if size > head {
		tailStart := max(size-SampleSize, head)
		_, _ = h.Write([]byte{0})
		if err := appendRange(h, r, tailStart, size-tailStart); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func appendRange(h hash.Hash, r io.ReaderAt, offset, length int64) error {
	if length <= 0 {
		return nil
	}
	if _, err := io.Copy(h, io.NewSectionReader(r, offset, length)); err != nil {
		return fmt.Errorf("hash bytes %d-%d: %w", offset, offset+length, err)
	}
	return nil
}
