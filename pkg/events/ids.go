package events

import "github.com/google/uuid"

// ID generators for the correlation identifiers used across the stream.
// Prefixes make the entity kind visible in logs and wire captures.

func NewThreadID() string {
	return "thread-" + uuid.NewString()
}

func NewRunID() string {
	return "run-" + uuid.NewString()
}

func NewMessageID() string {
	return "msg-" + uuid.NewString()
}

func NewToolCallID() string {
	return "call-" + uuid.NewString()
}
