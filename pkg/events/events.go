package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type EventType string

const (
	// Lifecycle events
	EventTypeRunStarted   EventType = "RUN_STARTED"
	EventTypeRunFinished  EventType = "RUN_FINISHED"
	EventTypeRunError     EventType = "RUN_ERROR"
	EventTypeStepStarted  EventType = "STEP_STARTED"
	EventTypeStepFinished EventType = "STEP_FINISHED"

	// Text message streaming
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"

	// Tool call streaming
	EventTypeToolCallStart EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs  EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd   EventType = "TOOL_CALL_END"

	// State synchronization
	EventTypeStateSnapshot    EventType = "STATE_SNAPSHOT"
	EventTypeStateDelta       EventType = "STATE_DELTA"
	EventTypeMessagesSnapshot EventType = "MESSAGES_SNAPSHOT"

	// Escape hatches
	EventTypeRaw    EventType = "RAW"
	EventTypeCustom EventType = "CUSTOM"
)

// Types returns all protocol event types in a stable order.
func Types() []EventType {
	return []EventType{
		EventTypeRunStarted, EventTypeRunFinished, EventTypeRunError,
		EventTypeStepStarted, EventTypeStepFinished,
		EventTypeTextMessageStart, EventTypeTextMessageContent, EventTypeTextMessageEnd,
		EventTypeToolCallStart, EventTypeToolCallArgs, EventTypeToolCallEnd,
		EventTypeStateSnapshot, EventTypeStateDelta, EventTypeMessagesSnapshot,
		EventTypeRaw, EventTypeCustom,
	}
}

type Event interface {
	Type() EventType
	Timestamp() int64
	Payload() []byte
}

// EventImpl is the shared envelope embedded in every concrete event.
// Timestamp is epoch milliseconds; zero means "not set yet" and is filled
// in by the transport encoder on the way out.
type EventImpl struct {
	Type_      EventType       `json:"type"`
	Timestamp_ int64           `json:"timestamp,omitempty"`
	RawEvent_  json.RawMessage `json:"rawEvent,omitempty"`

	// store payload if the event was deserialized from JSON (see NewEventFromJson)
	payload []byte
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Timestamp() int64 {
	return e.Timestamp_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

// SetPayload stores the raw JSON payload on the event implementation.
// This is used by NewEventFromJson and external decoders.
func (e *EventImpl) SetPayload(b []byte) {
	e.payload = b
}

// SetTimestamp overwrites the envelope timestamp (epoch milliseconds).
func (e *EventImpl) SetTimestamp(ts int64) {
	e.Timestamp_ = ts
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	if e.Timestamp_ != 0 {
		ev.Int64("timestamp", e.Timestamp_)
	}
}

var _ Event = &EventImpl{}

// --- Lifecycle events ---

type EventRunStarted struct {
	EventImpl
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

func NewRunStartedEvent(threadID, runID string) *EventRunStarted {
	return &EventRunStarted{
		EventImpl: EventImpl{Type_: EventTypeRunStarted},
		ThreadID:  threadID,
		RunID:     runID,
	}
}

var _ Event = &EventRunStarted{}

func (e EventRunStarted) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("thread_id", e.ThreadID).Str("run_id", e.RunID)
}

type EventRunFinished struct {
	EventImpl
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

func NewRunFinishedEvent(threadID, runID string) *EventRunFinished {
	return &EventRunFinished{
		EventImpl: EventImpl{Type_: EventTypeRunFinished},
		ThreadID:  threadID,
		RunID:     runID,
	}
}

var _ Event = &EventRunFinished{}

func (e EventRunFinished) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("thread_id", e.ThreadID).Str("run_id", e.RunID)
}

type EventRunError struct {
	EventImpl
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func NewRunErrorEvent(message string, code string) *EventRunError {
	return &EventRunError{
		EventImpl: EventImpl{Type_: EventTypeRunError},
		Message:   message,
		Code:      code,
	}
}

var _ Event = &EventRunError{}

func (e EventRunError) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("message", e.Message)
	if e.Code != "" {
		ev.Str("code", e.Code)
	}
}

type EventStepStarted struct {
	EventImpl
	StepName string `json:"stepName"`
}

func NewStepStartedEvent(stepName string) *EventStepStarted {
	return &EventStepStarted{
		EventImpl: EventImpl{Type_: EventTypeStepStarted},
		StepName:  stepName,
	}
}

var _ Event = &EventStepStarted{}

func (e EventStepStarted) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("step_name", e.StepName)
}

type EventStepFinished struct {
	EventImpl
	StepName string `json:"stepName"`
}

func NewStepFinishedEvent(stepName string) *EventStepFinished {
	return &EventStepFinished{
		EventImpl: EventImpl{Type_: EventTypeStepFinished},
		StepName:  stepName,
	}
}

var _ Event = &EventStepFinished{}

func (e EventStepFinished) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("step_name", e.StepName)
}

// --- Text message streaming events ---

type EventTextMessageStart struct {
	EventImpl
	MessageID string `json:"messageId"`
	Role      string `json:"role,omitempty"`
}

func NewTextMessageStartEvent(messageID, role string) *EventTextMessageStart {
	return &EventTextMessageStart{
		EventImpl: EventImpl{Type_: EventTypeTextMessageStart},
		MessageID: messageID,
		Role:      role,
	}
}

var _ Event = &EventTextMessageStart{}

func (e EventTextMessageStart) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("message_id", e.MessageID).Str("role", e.Role)
}

type EventTextMessageContent struct {
	EventImpl
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

func NewTextMessageContentEvent(messageID, delta string) *EventTextMessageContent {
	return &EventTextMessageContent{
		EventImpl: EventImpl{Type_: EventTypeTextMessageContent},
		MessageID: messageID,
		Delta:     delta,
	}
}

var _ Event = &EventTextMessageContent{}

func (e EventTextMessageContent) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("message_id", e.MessageID).Str("delta", e.Delta)
}

type EventTextMessageEnd struct {
	EventImpl
	MessageID string `json:"messageId"`
}

func NewTextMessageEndEvent(messageID string) *EventTextMessageEnd {
	return &EventTextMessageEnd{
		EventImpl: EventImpl{Type_: EventTypeTextMessageEnd},
		MessageID: messageID,
	}
}

var _ Event = &EventTextMessageEnd{}

func (e EventTextMessageEnd) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("message_id", e.MessageID)
}

// --- Tool call streaming events ---

type EventToolCallStart struct {
	EventImpl
	ToolCallID      string `json:"toolCallId"`
	ToolCallName    string `json:"toolCallName"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

func NewToolCallStartEvent(toolCallID, toolCallName string) *EventToolCallStart {
	return &EventToolCallStart{
		EventImpl:    EventImpl{Type_: EventTypeToolCallStart},
		ToolCallID:   toolCallID,
		ToolCallName: toolCallName,
	}
}

// WithParentMessageID links the tool call to the assistant message that
// requested it.
func (e *EventToolCallStart) WithParentMessageID(messageID string) *EventToolCallStart {
	e.ParentMessageID = messageID
	return e
}

var _ Event = &EventToolCallStart{}

func (e EventToolCallStart) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("tool_call_id", e.ToolCallID).Str("tool_call_name", e.ToolCallName)
	if e.ParentMessageID != "" {
		ev.Str("parent_message_id", e.ParentMessageID)
	}
}

type EventToolCallArgs struct {
	EventImpl
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

func NewToolCallArgsEvent(toolCallID, delta string) *EventToolCallArgs {
	return &EventToolCallArgs{
		EventImpl:  EventImpl{Type_: EventTypeToolCallArgs},
		ToolCallID: toolCallID,
		Delta:      delta,
	}
}

var _ Event = &EventToolCallArgs{}

func (e EventToolCallArgs) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("tool_call_id", e.ToolCallID).Str("delta", e.Delta)
}

type EventToolCallEnd struct {
	EventImpl
	ToolCallID string `json:"toolCallId"`
}

func NewToolCallEndEvent(toolCallID string) *EventToolCallEnd {
	return &EventToolCallEnd{
		EventImpl:  EventImpl{Type_: EventTypeToolCallEnd},
		ToolCallID: toolCallID,
	}
}

var _ Event = &EventToolCallEnd{}

func (e EventToolCallEnd) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("tool_call_id", e.ToolCallID)
}

// --- State synchronization events ---

type EventStateSnapshot struct {
	EventImpl
	Snapshot interface{} `json:"snapshot"`
}

func NewStateSnapshotEvent(snapshot interface{}) *EventStateSnapshot {
	return &EventStateSnapshot{
		EventImpl: EventImpl{Type_: EventTypeStateSnapshot},
		Snapshot:  snapshot,
	}
}

var _ Event = &EventStateSnapshot{}

func (e EventStateSnapshot) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Interface("snapshot", e.Snapshot)
}

type EventStateDelta struct {
	EventImpl
	Delta []JSONPatchOp `json:"delta"`
}

func NewStateDeltaEvent(ops []JSONPatchOp) *EventStateDelta {
	return &EventStateDelta{
		EventImpl: EventImpl{Type_: EventTypeStateDelta},
		Delta:     ops,
	}
}

var _ Event = &EventStateDelta{}

func (e EventStateDelta) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Int("op_count", len(e.Delta))
}

type EventMessagesSnapshot struct {
	EventImpl
	Messages []Message `json:"messages"`
}

func NewMessagesSnapshotEvent(messages []Message) *EventMessagesSnapshot {
	return &EventMessagesSnapshot{
		EventImpl: EventImpl{Type_: EventTypeMessagesSnapshot},
		Messages:  messages,
	}
}

var _ Event = &EventMessagesSnapshot{}

func (e EventMessagesSnapshot) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Int("message_count", len(e.Messages))
}

// --- Escape hatches ---

// EventRaw passes an unmodeled upstream event through the stream untouched.
type EventRaw struct {
	EventImpl
	Event  json.RawMessage `json:"event"`
	Source string          `json:"source,omitempty"`
}

func NewRawEvent(event json.RawMessage, source string) *EventRaw {
	return &EventRaw{
		EventImpl: EventImpl{Type_: EventTypeRaw},
		Event:     event,
		Source:    source,
	}
}

var _ Event = &EventRaw{}

func (e EventRaw) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	if e.Source != "" {
		ev.Str("source", e.Source)
	}
}

// EventCustom carries application-defined payloads. Decoding of the value is
// left to codecs registered with RegisterEventCodec.
type EventCustom struct {
	EventImpl
	Name  string      `json:"name"`
	Value interface{} `json:"value,omitempty"`
}

func NewCustomEvent(name string, value interface{}) *EventCustom {
	return &EventCustom{
		EventImpl: EventImpl{Type_: EventTypeCustom},
		Name:      name,
		Value:     value,
	}
}

var _ Event = &EventCustom{}

func (e EventCustom) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("name", e.Name)
}
