package events

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// NewEventFromJson decodes a JSON payload into the concrete event type named
// by its "type" discriminator. Codecs registered for custom types are
// consulted first, so applications can teach the stream new CUSTOM payloads
// without touching this switch.
func NewEventFromJson(b []byte) (Event, error) {
	var hdr struct {
		Type EventType `json:"type"`
	}
	_ = json.Unmarshal(b, &hdr)

	if hdr.Type == "" {
		return nil, errors.New("event payload has no type discriminator")
	}

	if dec := lookupDecoder(string(hdr.Type)); dec != nil {
		ev, err := dec(b)
		if err != nil {
			return nil, errors.Wrapf(err, "registered codec for %q", hdr.Type)
		}
		if ev != nil {
			if setter, ok := ev.(interface{ SetPayload([]byte) }); ok {
				setter.SetPayload(b)
			}
			return ev, nil
		}
	}

	var e *EventImpl
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	e.payload = b

	switch e.Type_ {
	case EventTypeRunStarted:
		return castEvent[EventRunStarted](e)
	case EventTypeRunFinished:
		return castEvent[EventRunFinished](e)
	case EventTypeRunError:
		return castEvent[EventRunError](e)
	case EventTypeStepStarted:
		return castEvent[EventStepStarted](e)
	case EventTypeStepFinished:
		return castEvent[EventStepFinished](e)
	case EventTypeTextMessageStart:
		return castEvent[EventTextMessageStart](e)
	case EventTypeTextMessageContent:
		return castEvent[EventTextMessageContent](e)
	case EventTypeTextMessageEnd:
		return castEvent[EventTextMessageEnd](e)
	case EventTypeToolCallStart:
		return castEvent[EventToolCallStart](e)
	case EventTypeToolCallArgs:
		return castEvent[EventToolCallArgs](e)
	case EventTypeToolCallEnd:
		return castEvent[EventToolCallEnd](e)
	case EventTypeStateSnapshot:
		return castEvent[EventStateSnapshot](e)
	case EventTypeStateDelta:
		return castEvent[EventStateDelta](e)
	case EventTypeMessagesSnapshot:
		return castEvent[EventMessagesSnapshot](e)
	case EventTypeRaw:
		return castEvent[EventRaw](e)
	case EventTypeCustom:
		return castEvent[EventCustom](e)
	}

	return nil, errors.Errorf("unknown event type %q", e.Type_)
}

// ToTypedEvent re-decodes the stored payload of an event into a concrete
// event struct.
func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	if err := json.Unmarshal(e.Payload(), &ret); err != nil {
		return nil, false
	}
	return ret, true
}

func castEvent[T any](e *EventImpl) (Event, error) {
	ret, ok := ToTypedEvent[T](e)
	if !ok {
		return nil, errors.Errorf("could not decode %q event body", e.Type_)
	}
	ev, ok := any(ret).(Event)
	if !ok {
		return nil, errors.Errorf("decoded %q event does not implement Event", e.Type_)
	}
	if setter, ok := any(ret).(interface{ SetPayload([]byte) }); ok {
		setter.SetPayload(e.payload)
	}
	return ev, nil
}
