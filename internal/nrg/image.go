package nrg

import (
	"fmt"
	"io"
	"os"
)

// Image is an opened NRG file. The footer is decoded on Open; a missing or
// broken footer is not an Open error so the file can still be converted.
type Image struct {
	path      string
	file      *os.File
	size      int64
	footer    Footer
	footerErr error
}

// Open opens path read-only and decodes its footer.
func Open(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat image: %w", err)
	}
	img := &Image{path: path, file: file, size: info.Size()}
	img.footer, img.footerErr = ReadFooter(file, img.size)
	return img, nil
}

// Close releases the file handle.
func (img *Image) Close() error {
	if img == nil || img.file == nil {
		return nil
	}
	return img.file.Close()
}

// Path returns the file path the image was opened from.
func (img *Image) Path() string { return img.path }

// Size returns the total file size.
func (img *Image) Size() int64 { return img.size }

// ReaderAt exposes the file for positional reads. Concurrent readers never
// share a seek position.
func (img *Image) ReaderAt() io.ReaderAt { return img.file }

// Footer returns the decoded footer and the error found while validating it.
func (img *Image) Footer() (Footer, error) { return img.footer, img.footerErr }

// PayloadLength is the number of leading bytes that hold disc data: the
// chain offset for a valid footer, otherwise the whole file.
func (img *Image) PayloadLength() int64 {
	if img.footerErr != nil {
		return img.size
	}
	return int64(img.footer.ChainOffset)
}

// Walk starts a new chunk walk. It returns the footer error for images that
// have no valid chain.
func (img *Image) Walk() (*Walker, error) {
	if img.footerErr != nil {
		return nil, img.footerErr
	}
	return NewWalker(img.file, img.size-FooterSize, img.footer.ChainOffset), nil
}

// Chunks lists every chunk in the chain.
func (img *Image) Chunks() ([]Chunk, error) {
	w, err := img.Walk()
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for w.Next() {
		chunks = append(chunks, w.Chunk())
	}
	return chunks, w.Err()
}

// Tracks decodes the first CUEX chunk into boundaries. An image without a
// CUEX chunk has no tracks and no error. A walk error after the CUEX chunk
// has been decoded is ignored.
func (img *Image) Tracks() ([]Boundary, error) {
	w, err := img.Walk()
	if err != nil {
		return nil, err
	}
	for w.Next() {
		if w.Chunk().ID != cueChunkID {
			continue
		}
		payload, err := w.Payload()
		if err != nil {
			return nil, err
		}
		return DecodeCueIndex(payload), nil
	}
	return nil, w.Err()
}
