package events

import "fmt"

// EmptyDeltaError is raised when a streaming content event carries no delta.
// Empty deltas are a protocol violation: a producer that has nothing to say
// must simply not emit the event.
type EmptyDeltaError struct {
	EventType EventType
	ID        string
}

func (e *EmptyDeltaError) Error() string {
	return fmt.Sprintf("%s for %s carries an empty delta", e.EventType, e.ID)
}

// Validate checks the intrinsic field contract of a single event, independent
// of any run or message it correlates with. Sequencing rules live in the run
// state machine.
func Validate(ev Event) error {
	switch ev := ev.(type) {
	case *EventTextMessageContent:
		if ev.Delta == "" {
			return &EmptyDeltaError{EventType: ev.Type(), ID: ev.MessageID}
		}
	case *EventToolCallArgs:
		if ev.Delta == "" {
			return &EmptyDeltaError{EventType: ev.Type(), ID: ev.ToolCallID}
		}
	}
	return nil
}
