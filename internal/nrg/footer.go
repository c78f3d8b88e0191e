package nrg

import (
	"encoding/binary"
	"io"
)

const (
	// SectorSize is the raw CD sector length in bytes.
	SectorSize = 2352
	// FooterSize is the length of the NER5 trailer.
	FooterSize = 12
	// PregapSentinel is the smallest CUEX sector value treated as a pre-gap
	// artifact (negative sectors stored as unsigned).
	PregapSentinel = 4_000_000_000

	footerTag = "NER5"
)

// Footer is the trailing NER5 record.
type Footer struct {
	Tag         string
	ChainOffset uint64
}

// ReadFooter decodes the last FooterSize bytes of an image of the given size.
// A foreign tag yields ErrUnsupported together with the decoded footer; an
// impossible chain offset yields a *ParseError.
func ReadFooter(r io.ReaderAt, size int64) (Footer, error) {
	if size < FooterSize {
		return Footer{}, parseErr("read footer", 0, "image is %d bytes: %w", size, io.ErrUnexpectedEOF)
	}
	var raw [FooterSize]byte
	off := size - FooterSize
	if err := readFull(r, size, off, raw[:], "footer"); err != nil {
		return Footer{}, err
	}
	footer := Footer{
		Tag:         string(raw[:4]),
		ChainOffset: binary.BigEndian.Uint64(raw[4:]),
	}
	if footer.Tag != footerTag {
		return footer, ErrUnsupported
	}
	if footer.ChainOffset == 0 || footer.ChainOffset >= uint64(size) {
		return footer, parseErr("read footer", off, "chain offset %d outside (0, %d)", footer.ChainOffset, size)
	}
	return footer, nil
}

// IsContainer reports whether r carries a NER5 footer, regardless of the
// chain offset's validity.
func IsContainer(r io.ReaderAt, size int64) bool {
	footer, _ := ReadFooter(r, size)
	return footer.Tag == footerTag
}
