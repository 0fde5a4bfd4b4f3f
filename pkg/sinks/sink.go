// Package sinks provides destinations for protocol events: the watermill
// message bus, in-memory collectors for tests and replay tooling, and
// context plumbing so deeply nested producers can publish without threading
// a sink through every call.
package sinks

import "github.com/go-go-golems/agui/pkg/events"

// EventSink represents a destination for protocol events.
// Implementations can publish events to different backends like watermill,
// logging systems, or other event processing systems.
type EventSink interface {
	// PublishEvent publishes an event to the sink.
	// Returns an error if the event could not be published.
	PublishEvent(event events.Event) error
}
