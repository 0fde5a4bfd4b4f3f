package sinks

import (
	"sync"

	"github.com/go-go-golems/agui/pkg/events"
)

// CollectorSink keeps every published event in memory, in arrival order,
// so a full stream can be inspected after the fact.
type CollectorSink struct {
	mu     sync.Mutex
	events []events.Event
}

func NewCollectorSink() *CollectorSink {
	return &CollectorSink{}
}

func (c *CollectorSink) PublishEvent(event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

// Events returns a snapshot of the collected events in arrival order.
func (c *CollectorSink) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset discards all collected events.
func (c *CollectorSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

var _ EventSink = (*CollectorSink)(nil)
