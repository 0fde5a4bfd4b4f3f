package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_RunStarted(t *testing.T) {
	ev := NewRunStartedEvent("thread-1", "run-1")
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	// wire uses camelCase field names
	assert.Contains(t, string(b), `"threadId":"thread-1"`)
	assert.Contains(t, string(b), `"runId":"run-1"`)
	assert.Contains(t, string(b), `"type":"RUN_STARTED"`)

	parsed, err := NewEventFromJson(b)
	require.NoError(t, err)

	started, ok := parsed.(*EventRunStarted)
	require.True(t, ok)
	assert.Equal(t, "thread-1", started.ThreadID)
	assert.Equal(t, "run-1", started.RunID)
	assert.Equal(t, EventTypeRunStarted, started.Type())
}

func TestRoundTrip_AllKinds(t *testing.T) {
	evs := []Event{
		NewRunStartedEvent("t1", "r1"),
		NewRunFinishedEvent("t1", "r1"),
		NewRunErrorEvent("boom", "E_BOOM"),
		NewStepStartedEvent("reason"),
		NewStepFinishedEvent("reason"),
		NewTextMessageStartEvent("m1", RoleAssistant),
		NewTextMessageContentEvent("m1", "Hello"),
		NewTextMessageEndEvent("m1"),
		NewToolCallStartEvent("c1", "add"),
		NewToolCallArgsEvent("c1", `{"a":1}`),
		NewToolCallEndEvent("c1"),
		NewStateSnapshotEvent(map[string]interface{}{"count": 0}),
		NewStateDeltaEvent([]JSONPatchOp{{Op: "replace", Path: "/count", Value: 1}}),
		NewMessagesSnapshotEvent([]Message{{ID: "m1", Role: RoleUser, Content: "hi"}}),
		NewRawEvent(json.RawMessage(`{"upstream":true}`), "provider"),
		NewCustomEvent("mode-switch", map[string]interface{}{"to": "planning"}),
	}

	for _, ev := range evs {
		b, err := json.Marshal(ev)
		require.NoError(t, err, "marshal %s", ev.Type())

		parsed, err := NewEventFromJson(b)
		require.NoError(t, err, "decode %s", ev.Type())
		assert.Equal(t, ev.Type(), parsed.Type())
		assert.Equal(t, b, parsed.Payload())
	}
}

func TestRoundTrip_StateDeltaOps(t *testing.T) {
	ev := NewStateDeltaEvent([]JSONPatchOp{
		{Op: "add", Path: "/items/-", Value: "x"},
		{Op: "move", Path: "/b", From: "/a"},
	})
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	parsed, err := NewEventFromJson(b)
	require.NoError(t, err)

	delta, ok := parsed.(*EventStateDelta)
	require.True(t, ok)
	require.Len(t, delta.Delta, 2)
	assert.Equal(t, "add", delta.Delta[0].Op)
	assert.Equal(t, "/items/-", delta.Delta[0].Path)
	assert.Equal(t, "/a", delta.Delta[1].From)
}

func TestJSONPatchOpKeepsNullValue(t *testing.T) {
	b, err := json.Marshal(JSONPatchOp{Op: "replace", Path: "/x", Value: nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"replace","path":"/x","value":null}`, string(b))

	b, err = json.Marshal(JSONPatchOp{Op: "remove", Path: "/x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"remove","path":"/x"}`, string(b))
}

func TestNewEventFromJson_UnknownType(t *testing.T) {
	_, err := NewEventFromJson([]byte(`{"type":"NOT_A_THING"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_A_THING")
}

func TestNewEventFromJson_NoType(t *testing.T) {
	_, err := NewEventFromJson([]byte(`{"messageId":"m1"}`))
	require.Error(t, err)
}

func TestValidate_EmptyDelta(t *testing.T) {
	err := Validate(NewTextMessageContentEvent("m1", ""))
	require.Error(t, err)

	var emptyDelta *EmptyDeltaError
	require.ErrorAs(t, err, &emptyDelta)
	assert.Equal(t, EventTypeTextMessageContent, emptyDelta.EventType)
	assert.Equal(t, "m1", emptyDelta.ID)

	err = Validate(NewToolCallArgsEvent("c1", ""))
	require.ErrorAs(t, err, &emptyDelta)
	assert.Equal(t, "c1", emptyDelta.ID)

	assert.NoError(t, Validate(NewTextMessageContentEvent("m1", "x")))
	assert.NoError(t, Validate(NewRunStartedEvent("t1", "r1")))
}

type testPingEvent struct {
	EventImpl
	Nonce string `json:"nonce"`
}

func TestRegisterEventFactory(t *testing.T) {
	require.NoError(t, RegisterEventFactory("TEST_PING", func() Event {
		return &testPingEvent{EventImpl: EventImpl{Type_: "TEST_PING"}}
	}))

	ev, err := NewEventFromJson([]byte(`{"type":"TEST_PING","nonce":"abc"}`))
	require.NoError(t, err)

	ping, ok := ev.(*testPingEvent)
	require.True(t, ok)
	assert.Equal(t, "abc", ping.Nonce)

	// double registration is refused
	err = RegisterEventFactory("TEST_PING", func() Event { return &testPingEvent{} })
	require.Error(t, err)
}

func TestIDGenerators(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewRunID(), "run-"))
	assert.True(t, strings.HasPrefix(NewThreadID(), "thread-"))
	assert.True(t, strings.HasPrefix(NewMessageID(), "msg-"))
	assert.True(t, strings.HasPrefix(NewToolCallID(), "call-"))
	assert.NotEqual(t, NewRunID(), NewRunID())
}
