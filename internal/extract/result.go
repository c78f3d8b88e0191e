package extract

import (
	"fmt"
	"time"

	"autosplit/internal/services"
	"autosplit/internal/volume"
)

// Cause names why an input produced no audio.
type Cause string

const (
	CauseFormatUnrecognized Cause = "format_unrecognized"
	CauseNoTracks           Cause = "no_tracks"
	CauseNoMount            Cause = "no_mount"
	CauseNotAudioDisc       Cause = "not_audio_disc"
	CauseNoSilence          Cause = "no_silence"
	CauseToolsFailed        Cause = "tools_failed"
	CauseMissingRawImage    Cause = "missing_raw_image"
)

// NoAudioError reports an input that exhausted its strategies without
// producing files. It matches services.ErrNoAudio.
type NoAudioError struct {
	Input string
	Cause Cause
	Err   error
}

func (e *NoAudioError) Error() string {
	msg := fmt.Sprintf("no audio produced from %s: %s", e.Input, e.Cause)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NoAudioError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrNoAudio}
	}
	return []error{services.ErrNoAudio, e.Err}
}

// Attempt records one executed step.
type Attempt struct {
	Strategy string
	Outcome  string
	Files    int
	Error    string
	Elapsed  time.Duration
}

// Result is the outcome of processing one input.
type Result struct {
	Input    string
	Kind     Kind
	Strategy string
	Files    []string
	DiscType volume.DiscType
	Attempts []Attempt
	Reason   *NoAudioError
}

// Err returns the no-audio reason as an error, or nil when files were produced.
func (r Result) Err() error {
	if r.Reason == nil {
		return nil
	}
	return r.Reason
}
