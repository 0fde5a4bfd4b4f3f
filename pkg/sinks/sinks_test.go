package sinks

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/agui/pkg/events"
)

type capturedMessage struct {
	topic string
	msg   *message.Message
}

type fakePublisher struct {
	mu       sync.Mutex
	captured []capturedMessage
	failWith error
}

func (f *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, msg := range msgs {
		f.captured = append(f.captured, capturedMessage{topic: topic, msg: msg})
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) messages() []capturedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]capturedMessage, len(f.captured))
	copy(out, f.captured)
	return out
}

func TestCollectorSink(t *testing.T) {
	sink := NewCollectorSink()

	require.NoError(t, sink.PublishEvent(events.NewRunStartedEvent("t1", "r1")))
	require.NoError(t, sink.PublishEvent(events.NewTextMessageStartEvent("m1", "assistant")))
	require.NoError(t, sink.PublishEvent(events.NewRunFinishedEvent("t1", "r1")))

	collected := sink.Events()
	require.Len(t, collected, 3)
	assert.Equal(t, events.EventTypeRunStarted, collected[0].Type())
	assert.Equal(t, events.EventTypeTextMessageStart, collected[1].Type())
	assert.Equal(t, events.EventTypeRunFinished, collected[2].Type())

	// the returned slice is a snapshot, not the internal buffer
	collected[0] = nil
	assert.NotNil(t, sink.Events()[0])

	sink.Reset()
	assert.Empty(t, sink.Events())
}

func TestNullSink(t *testing.T) {
	sink := NewNullSink()
	assert.NoError(t, sink.PublishEvent(events.NewRunStartedEvent("t1", "r1")))
}

func TestWatermillSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewWatermillSink(pub, "run:r1")

	ev := events.NewTextMessageContentEvent("m1", "hello")
	require.NoError(t, sink.PublishEvent(ev))

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "run:r1", msgs[0].topic)

	var decoded struct {
		Type      string `json:"type"`
		MessageID string `json:"messageId"`
		Delta     string `json:"delta"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].msg.Payload, &decoded))
	assert.Equal(t, "TEXT_MESSAGE_CONTENT", decoded.Type)
	assert.Equal(t, "m1", decoded.MessageID)
	assert.Equal(t, "hello", decoded.Delta)
}

func TestWatermillSinkPropagatesPublishError(t *testing.T) {
	pub := &fakePublisher{failWith: assert.AnError}
	sink := NewWatermillSink(pub, "run:r1")
	assert.Error(t, sink.PublishEvent(events.NewRunStartedEvent("t1", "r1")))
}

func TestPublisherManagerSequenceNumbers(t *testing.T) {
	manager := NewPublisherManager()
	pub := &fakePublisher{}
	manager.SubscribePublisher("run:r1", pub)

	require.NoError(t, manager.Publish(events.NewRunStartedEvent("t1", "r1")))
	require.NoError(t, manager.Publish(events.NewTextMessageStartEvent("m1", "assistant")))
	require.NoError(t, manager.Publish(events.NewRunFinishedEvent("t1", "r1")))

	msgs := pub.messages()
	require.Len(t, msgs, 3)
	for i, captured := range msgs {
		assert.Equal(t, "run:r1", captured.topic)
		assert.Equal(t, strconv.Itoa(i), captured.msg.Metadata.Get("sequence_number"))
	}
}

func TestPublisherManagerFanOut(t *testing.T) {
	manager := NewPublisherManager()
	first := &fakePublisher{}
	second := &fakePublisher{}
	manager.SubscribePublisher("run:r1", first)
	manager.SubscribePublisher("run:r1", second)

	require.NoError(t, manager.Publish(events.NewRunStartedEvent("t1", "r1")))

	assert.Len(t, first.messages(), 1)
	assert.Len(t, second.messages(), 1)
}

func TestContextSinks(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetEventSinks(ctx))

	first := NewCollectorSink()
	second := NewCollectorSink()

	ctx = WithEventSinks(ctx, first)
	ctx = WithEventSinks(ctx, second)
	require.Len(t, GetEventSinks(ctx), 2)

	PublishEventToContext(ctx, events.NewRunStartedEvent("t1", "r1"))

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
	assert.Equal(t, events.EventTypeRunStarted, first.Events()[0].Type())
}

func TestPublishEventToContextWithoutSinks(t *testing.T) {
	// no sinks in context: a silent no-op
	PublishEventToContext(context.Background(), events.NewRunStartedEvent("t1", "r1"))
}
