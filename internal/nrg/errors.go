package nrg

import (
	"fmt"

	"autosplit/internal/services"
)

// ErrUnsupported marks images whose footer does not carry the NER5 tag.
var ErrUnsupported = fmt.Errorf("nrg: footer tag is not NER5: %w", services.ErrUnsupported)

// ParseError reports malformed structure at a byte offset.
type ParseError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nrg: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

// Unwrap exposes both the cause and the shared parse marker.
func (e *ParseError) Unwrap() []error {
	return []error{services.ErrParse, e.Err}
}

func parseErr(op string, offset int64, format string, args ...any) *ParseError {
	return &ParseError{Op: op, Offset: offset, Err: fmt.Errorf(format, args...)}
}
