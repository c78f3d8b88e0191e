package extract

import "autosplit/internal/volume"

type step int

const (
	stepSheet step = iota
	stepDirect
	stepConvert
	stepMount
	stepInspect
	stepLegacy
	stepRip
	stepSilence
	stepDone
)

var stepNames = [...]string{
	stepSheet:   "sheet",
	stepDirect:  "direct",
	stepConvert: "convert",
	stepMount:   "mount",
	stepInspect: "inspect",
	stepLegacy:  "legacy",
	stepRip:     "rip",
	stepSilence: "silence",
	stepDone:    "done",
}

func (s step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "invalid"
	}
	return stepNames[s]
}

// OutcomeKind summarizes how a step ended.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Unsupported
	Failed
	NotAudio
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Unsupported:
		return "unsupported"
	case Failed:
		return "failed"
	case NotAudio:
		return "not_audio"
	default:
		return "invalid"
	}
}

// Outcome is the result of executing one step.
type Outcome struct {
	Kind     OutcomeKind
	Files    []string
	DiscType volume.DiscType
	Err      error
	// Cause explains an empty result if this turns out to be the last step.
	Cause Cause
}

func initialStep(kind Kind) (step, bool) {
	switch kind {
	case KindSheet:
		return stepSheet, true
	case KindContainer:
		return stepDirect, true
	case KindImage:
		return stepMount, true
	case KindAudio:
		return stepSilence, true
	default:
		return stepDone, false
	}
}

// transition decides the step that follows s given its outcome.
func transition(s step, o Outcome) step {
	switch s {
	case stepDirect:
		if o.Kind == Success {
			return stepDone
		}
		return stepConvert
	case stepConvert:
		if o.Kind == Success {
			return stepMount
		}
		return stepDone
	case stepMount:
		if o.Kind == Success {
			return stepInspect
		}
		return stepLegacy
	case stepInspect:
		if o.Kind != Success {
			return stepDone
		}
		switch o.DiscType {
		case volume.SACD:
			return stepLegacy
		case volume.AudioCD:
			return stepRip
		default:
			return stepDone
		}
	default:
		// Sheet, legacy, rip and silence are terminal.
		return stepDone
	}
}
