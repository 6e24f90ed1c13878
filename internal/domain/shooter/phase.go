package shooter

import (
	"errors"
	"fmt"
)

// Phase is the recording phase of the working camera as seen by the client.
type Phase int

// Phases of one client run.
const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseStopped
	PhaseDownloading
	PhaseInterrupted
	PhaseDone
)

// ErrIllegalTransition is returned by Machine.To for transitions the table does not allow.
var ErrIllegalTransition = errors.New("illegal phase transition")

//nolint:gochecknoglobals // Static transition table.
var transitions = map[Phase][]Phase{
	PhaseIdle:        {PhaseRecording, PhaseStopped, PhaseInterrupted, PhaseDone},
	PhaseRecording:   {PhaseRecording, PhaseStopped, PhaseInterrupted, PhaseDone},
	PhaseStopped:     {PhaseRecording, PhaseStopped, PhaseDownloading, PhaseInterrupted, PhaseDone},
	PhaseDownloading: {PhaseStopped, PhaseInterrupted},
}

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseStopped:
		return "stopped"
	case PhaseDownloading:
		return "downloading"
	case PhaseInterrupted:
		return "interrupted"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return len(transitions[p]) == 0
}

// Machine tracks the current phase and records every phase it went through.
type Machine struct {
	current Phase
	history []Phase
}

// NewMachine returns a machine in PhaseIdle.
func NewMachine() *Machine {
	return &Machine{
		current: PhaseIdle,
		history: []Phase{PhaseIdle},
	}
}

// Current returns the current phase.
func (m *Machine) Current() Phase {
	return m.current
}

// History returns a copy of every phase entered, starting with PhaseIdle.
func (m *Machine) History() []Phase {
	return append([]Phase(nil), m.history...)
}

// To moves the machine to next or fails with ErrIllegalTransition.
func (m *Machine) To(next Phase) error {
	for _, allowed := range transitions[m.current] {
		if allowed == next {
			m.current = next
			m.history = append(m.history, next)

			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, next)
}
