package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/agui/pkg/assembler"
	"github.com/go-go-golems/agui/pkg/events"
	"github.com/go-go-golems/agui/pkg/sinks"
	"github.com/go-go-golems/agui/pkg/statesync"
)

func applyAll(t *testing.T, p *Processor, evs ...events.Event) {
	t.Helper()
	for _, ev := range evs {
		require.NoError(t, p.Apply(ev))
	}
}

func TestProcessor_StreamedMessage(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewTextMessageStartEvent("m1", events.RoleAssistant),
		events.NewTextMessageContentEvent("m1", "Hello"),
		events.NewTextMessageContentEvent("m1", ", world!"),
		events.NewTextMessageEndEvent("m1"),
		events.NewRunFinishedEvent("t1", "r1"),
	)

	assert.Equal(t, PhaseFinished, p.Phase())

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, assembler.AssembledMessage{
		ID:      "m1",
		Role:    events.RoleAssistant,
		Content: "Hello, world!",
	}, msgs[0])

	history := p.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Hello, world!", history[0].Content)
}

func TestProcessor_ToolCallAttachedToParent(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewTextMessageStartEvent("m1", events.RoleAssistant),
		events.NewTextMessageContentEvent("m1", "Let me compute that."),
		events.NewTextMessageEndEvent("m1"),
		events.NewToolCallStartEvent("c1", "add").WithParentMessageID("m1"),
		events.NewToolCallArgsEvent("c1", `{"a":1,`),
		events.NewToolCallArgsEvent("c1", `"b":2}`),
		events.NewToolCallEndEvent("c1"),
		events.NewRunFinishedEvent("t1", "r1"),
	)

	calls := p.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, `{"a":1,"b":2}`, calls[0].Arguments)
	_, err := calls[0].ArgumentsJSON()
	require.NoError(t, err)

	history := p.History()
	require.Len(t, history, 1)
	require.Len(t, history[0].ToolCalls, 1)
	assert.Equal(t, "add", history[0].ToolCalls[0].Function.Name)
	assert.Equal(t, `{"a":1,"b":2}`, history[0].ToolCalls[0].Function.Arguments)
}

func TestProcessor_OrphanToolCall(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewToolCallStartEvent("c1", "lookup"),
		events.NewToolCallArgsEvent("c1", `{"q":"spud"}`),
		events.NewToolCallEndEvent("c1"),
	)

	history := p.History()
	require.Len(t, history, 1)
	assert.Equal(t, "c1", history[0].ID)
	assert.Equal(t, events.RoleAssistant, history[0].Role)
}

func TestProcessor_StateSync(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewStateSnapshotEvent(map[string]interface{}{"count": 0}),
		events.NewStateDeltaEvent([]events.JSONPatchOp{
			{Op: "replace", Path: "/count", Value: 1},
		}),
	)

	assert.Equal(t, map[string]interface{}{"count": float64(1)}, p.State())
}

func TestProcessor_BadDeltaIsNotFatal(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewStateSnapshotEvent(map[string]interface{}{"count": 0}),
	)

	err := p.Apply(events.NewStateDeltaEvent([]events.JSONPatchOp{
		{Op: "replace", Path: "/missing", Value: 1},
	}))
	require.Error(t, err)

	var invalid *statesync.InvalidPatchError
	require.ErrorAs(t, err, &invalid)

	// the run keeps going; a fresh snapshot recovers the mirror
	assert.Equal(t, PhaseRunning, p.Phase())
	applyAll(t, p,
		events.NewStateSnapshotEvent(map[string]interface{}{"count": 5, "missing": 0}),
		events.NewRunFinishedEvent("t1", "r1"),
	)
	state := p.State().(map[string]interface{})
	assert.Equal(t, float64(5), state["count"])
}

func TestProcessor_MessagesSnapshotReplacesHistory(t *testing.T) {
	p := NewProcessor()

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewTextMessageStartEvent("m1", events.RoleAssistant),
		events.NewTextMessageContentEvent("m1", "old"),
		events.NewTextMessageEndEvent("m1"),
		events.NewMessagesSnapshotEvent([]events.Message{
			{ID: "u1", Role: events.RoleUser, Content: "What is porosity?"},
			{ID: "a1", Role: events.RoleAssistant, Content: "The void fraction of rock."},
		}),
	)

	history := p.History()
	require.Len(t, history, 2)
	assert.Equal(t, "u1", history[0].ID)
	assert.Equal(t, events.RoleAssistant, history[1].Role)
}

func TestProcessor_EmptyDeltaRejected(t *testing.T) {
	p := NewProcessor()
	require.NoError(t, p.Apply(events.NewRunStartedEvent("t1", "r1")))
	require.NoError(t, p.Apply(events.NewTextMessageStartEvent("m1", events.RoleAssistant)))

	var emptyDelta *events.EmptyDeltaError
	require.ErrorAs(t, p.Apply(events.NewTextMessageContentEvent("m1", "")), &emptyDelta)

	// the rejected event changed nothing, the bracket is still open
	require.NoError(t, p.Apply(events.NewTextMessageContentEvent("m1", "ok")))
	require.NoError(t, p.Apply(events.NewTextMessageEndEvent("m1")))

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].Content)
}

func TestProcessor_RunErrorRecorded(t *testing.T) {
	p := NewProcessor()
	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewRunErrorEvent("upstream failure", "E_UPSTREAM"),
	)

	assert.Equal(t, PhaseErrored, p.Phase())
	require.NotNil(t, p.RunError())
	assert.Equal(t, "upstream failure", p.RunError().Message)
	assert.Equal(t, "E_UPSTREAM", p.RunError().Code)
}

func TestProcessor_ForwardSink(t *testing.T) {
	collector := sinks.NewCollectorSink()
	p := NewProcessor(WithForwardSink(collector))

	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewTextMessageStartEvent("m1", events.RoleAssistant),
	)

	// a rejected event is not forwarded
	require.Error(t, p.Apply(events.NewTextMessageStartEvent("m1", events.RoleAssistant)))

	forwarded := collector.Events()
	require.Len(t, forwarded, 2)
	assert.Equal(t, events.EventTypeRunStarted, forwarded[0].Type())
	assert.Equal(t, events.EventTypeTextMessageStart, forwarded[1].Type())
}

func TestProcessor_DefaultRoleIsAssistant(t *testing.T) {
	p := NewProcessor()
	applyAll(t, p,
		events.NewRunStartedEvent("t1", "r1"),
		events.NewTextMessageStartEvent("m1", ""),
		events.NewTextMessageEndEvent("m1"),
	)

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.RoleAssistant, msgs[0].Role)
}
