package services

import (
	"errors"
	"strings"
)

// Markers classify failures. Every error built by Wrap matches exactly one of
// them under errors.Is.
var (
	ErrUnsupported   = errors.New("unsupported format")
	ErrParse         = errors.New("parse failure")
	ErrMount         = errors.New("mount failure")
	ErrExtraction    = errors.New("extraction failure")
	ErrNoAudio       = errors.New("no audio produced")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
)

// Error carries the component and operation that failed alongside a marker
// and an optional cause.
type Error struct {
	Marker    error
	Component string
	Operation string
	Message   string
	Err       error
}

// Wrap tags err with marker and the failing component/operation. A nil
// marker defaults to ErrExternalTool.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &Error{
		Marker:    marker,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	n := b.Len()
	for _, part := range []string{e.Component, e.Operation, e.Message} {
		if part == "" {
			continue
		}
		if b.Len() > n {
			b.WriteString(": ")
		}
		b.WriteString(part)
	}
	if b.Len() == n {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Recoverable reports whether err should make the orchestrator move on to the
// next strategy instead of aborting the input.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	for _, marker := range []error{ErrUnsupported, ErrParse, ErrMount, ErrExtraction, ErrExternalTool, ErrTimeout} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}
