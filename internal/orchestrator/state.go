package orchestrator

import "fmt"

// State is the orchestrator's recovery state, derived from RunState.
type State int

const (
	StateInit State = iota
	StateSteady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSteady:
		return "steady"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "init":
		*s = StateInit
	case "steady":
		*s = StateSteady
	case "degraded":
		*s = StateDegraded
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// Mode is how a cycle emits.
type Mode int

const (
	ModeFull Mode = iota
	ModeIncremental
)

func (m Mode) String() string {
	if m == ModeIncremental {
		return "incremental"
	}
	return "full"
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "full":
		*m = ModeFull
	case "incremental":
		*m = ModeIncremental
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}

// RunState lives for the orchestrator's lifetime and is only mutated at the
// end of a cycle.
type RunState struct {
	// FirstRun is true until a cycle has attempted a full build.
	FirstRun bool
	// PreviousRunFailed is true when the last cycle left files unemitted,
	// either because of analysis errors or because it aborted.
	PreviousRunFailed bool
}

// State derives the recovery state.
func (r RunState) State() State {
	switch {
	case r.FirstRun:
		return StateInit
	case r.PreviousRunFailed:
		return StateDegraded
	default:
		return StateSteady
	}
}

// NextMode is the emission mode the next cycle will use.
func (r RunState) NextMode() Mode {
	if r.State() == StateSteady {
		return ModeIncremental
	}
	return ModeFull
}
