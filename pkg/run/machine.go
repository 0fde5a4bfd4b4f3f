// Package run enforces the per-run event ordering rules of the streaming
// protocol: lifecycle bracketing, step alternation, and the single terminal
// event. The machine validates, it never recovers; callers decide whether a
// violation means dropping the producer or requesting a full resync.
package run

import (
	"github.com/go-go-golems/agui/pkg/events"
)

// Phase is the lifecycle phase of one run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFinished
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	case PhaseErrored:
		return "errored"
	}
	return "unknown"
}

// Terminal reports whether the phase is one of the two terminal states.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseErrored
}

// Machine validates the event ordering of a single run. One machine per run;
// events for different runs belong to different machines. Not safe for
// concurrent use: the protocol mandates a single ordered producer per run.
type Machine struct {
	phase    Phase
	threadID string
	runID    string

	openStep    string
	hasOpenStep bool
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

func (m *Machine) Phase() Phase {
	return m.phase
}

func (m *Machine) ThreadID() string {
	return m.threadID
}

func (m *Machine) RunID() string {
	return m.runID
}

// OpenStep returns the name of the currently open step, if any.
func (m *Machine) OpenStep() (string, bool) {
	return m.openStep, m.hasOpenStep
}

// Apply validates one event against the current phase and advances the
// machine. On error the machine is unchanged and the event must be treated
// as rejected.
func (m *Machine) Apply(ev events.Event) error {
	switch ev := ev.(type) {
	case *events.EventRunStarted:
		return m.applyRunStarted(ev)
	case *events.EventRunFinished:
		return m.applyRunFinished(ev)
	case *events.EventRunError:
		return m.applyRunError(ev)
	case *events.EventStepStarted:
		return m.applyStepStarted(ev)
	case *events.EventStepFinished:
		return m.applyStepFinished(ev)
	default:
		return m.requireRunning(ev)
	}
}

func (m *Machine) applyRunStarted(ev *events.EventRunStarted) error {
	switch m.phase {
	case PhaseRunning:
		return &DuplicateRunError{RunID: m.runID, NewRunID: ev.RunID}
	case PhaseFinished, PhaseErrored:
		return &PostTerminalEventError{Phase: m.phase, EventType: ev.Type()}
	}
	m.phase = PhaseRunning
	m.threadID = ev.ThreadID
	m.runID = ev.RunID
	return nil
}

func (m *Machine) applyRunFinished(ev *events.EventRunFinished) error {
	if err := m.requireRunning(ev); err != nil {
		return err
	}
	if ev.ThreadID != m.threadID || ev.RunID != m.runID {
		return &RunMismatchError{
			ThreadID: m.threadID, RunID: m.runID,
			GotThread: ev.ThreadID, GotRun: ev.RunID,
		}
	}
	if m.hasOpenStep {
		return &StepMismatchError{StepName: m.openStep, Reason: "still open when run finished"}
	}
	m.phase = PhaseFinished
	return nil
}

func (m *Machine) applyRunError(ev *events.EventRunError) error {
	if err := m.requireRunning(ev); err != nil {
		return err
	}
	// An erroring agent may fail mid-step; the open step dies with the run.
	m.phase = PhaseErrored
	m.openStep = ""
	m.hasOpenStep = false
	return nil
}

func (m *Machine) applyStepStarted(ev *events.EventStepStarted) error {
	if err := m.requireRunning(ev); err != nil {
		return err
	}
	if m.hasOpenStep {
		return &StepMismatchError{
			StepName: ev.StepName,
			Reason:   "step " + m.openStep + " is still open, steps do not nest",
		}
	}
	m.openStep = ev.StepName
	m.hasOpenStep = true
	return nil
}

func (m *Machine) applyStepFinished(ev *events.EventStepFinished) error {
	if err := m.requireRunning(ev); err != nil {
		return err
	}
	if !m.hasOpenStep || m.openStep != ev.StepName {
		return &StepMismatchError{StepName: ev.StepName, Reason: "no matching open step"}
	}
	m.openStep = ""
	m.hasOpenStep = false
	return nil
}

func (m *Machine) requireRunning(ev events.Event) error {
	switch m.phase {
	case PhaseIdle:
		return &NoActiveRunError{EventType: ev.Type()}
	case PhaseFinished, PhaseErrored:
		return &PostTerminalEventError{Phase: m.phase, EventType: ev.Type()}
	}
	return nil
}
