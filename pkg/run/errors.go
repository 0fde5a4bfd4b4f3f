package run

import (
	"fmt"

	"github.com/go-go-golems/agui/pkg/events"
)

// DuplicateRunError is raised when RUN_STARTED arrives while a run is
// already in progress.
type DuplicateRunError struct {
	RunID    string
	NewRunID string
}

func (e *DuplicateRunError) Error() string {
	return fmt.Sprintf("run %q already started, cannot start run %q", e.RunID, e.NewRunID)
}

// PostTerminalEventError is raised for any event observed after the run
// reached a terminal phase. Terminal violations are reported, never silently
// dropped, so observers can detect misbehaving producers.
type PostTerminalEventError struct {
	Phase     Phase
	EventType events.EventType
}

func (e *PostTerminalEventError) Error() string {
	return fmt.Sprintf("event %s received after run reached %s", e.EventType, e.Phase)
}

// NoActiveRunError is raised for any event other than RUN_STARTED while no
// run is in progress.
type NoActiveRunError struct {
	EventType events.EventType
}

func (e *NoActiveRunError) Error() string {
	return fmt.Sprintf("event %s received before RUN_STARTED", e.EventType)
}

// RunMismatchError is raised when a terminal event names a different
// thread/run than the one that was started.
type RunMismatchError struct {
	ThreadID  string
	RunID     string
	GotThread string
	GotRun    string
}

func (e *RunMismatchError) Error() string {
	return fmt.Sprintf("terminal event for thread %q run %q does not match active thread %q run %q",
		e.GotThread, e.GotRun, e.ThreadID, e.RunID)
}

// StepMismatchError covers every step bracketing violation: finishing a step
// that is not open, opening a step while another is open (the protocol
// defines no nesting semantics), or finishing the run with a step still
// open.
type StepMismatchError struct {
	StepName string
	Reason   string
}

func (e *StepMismatchError) Error() string {
	return fmt.Sprintf("step %q: %s", e.StepName, e.Reason)
}
