package model

import "fmt"

// Phase is the single exclusive workflow phase of the studio.
type Phase string

const (
	PhaseAwaitingFile  Phase = "awaiting_file"
	PhaseReadyToRender Phase = "ready_to_render"
	PhaseRendering     Phase = "rendering"
	PhaseResultReady   Phase = "result_ready"
)

var allowedTransitions = map[Phase]map[Phase]bool{
	PhaseAwaitingFile: {
		PhaseReadyToRender: true,
	},
	PhaseReadyToRender: {
		PhaseReadyToRender: true, // reselect
		PhaseRendering:     true,
	},
	PhaseRendering: {
		PhaseResultReady:   true,
		PhaseReadyToRender: true, // failure, or superseded by a new selection
	},
	PhaseResultReady: {
		PhaseReadyToRender: true,
		PhaseRendering:     true,
	},
}

func IsKnownPhase(phase Phase) bool {
	_, ok := allowedTransitions[phase]
	return ok
}

func CanTransition(from, to Phase) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TransitionPhase moves *current to next, refusing edges outside the table.
func TransitionPhase(current *Phase, next Phase) error {
	from := *current
	if !CanTransition(from, next) {
		return fmt.Errorf("invalid workflow transition: %q -> %q", from, next)
	}
	*current = next
	return nil
}

func (p Phase) Label() string {
	switch p {
	case PhaseAwaitingFile:
		return "awaiting file"
	case PhaseReadyToRender:
		return "ready to render"
	case PhaseRendering:
		return "rendering"
	case PhaseResultReady:
		return "result ready"
	default:
		return string(p)
	}
}
