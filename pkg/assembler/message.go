// Package assembler reconstructs complete messages and tool calls from
// ordered delta fragments. Concatenation is strictly arrival order: the
// assemblers never reorder or buffer across entities, so the transport must
// deliver a run's events on a single ordered stream.
package assembler

import "strings"

// AssembledMessage is a fully reconstructed text message.
type AssembledMessage struct {
	ID      string
	Role    string
	Content string
}

type openMessage struct {
	role    string
	content strings.Builder
}

// MessageAssembler accumulates TEXT_MESSAGE_START/CONTENT/END brackets into
// complete messages, keyed by message ID. Not safe for concurrent use; each
// run owns one assembler on its single event pipeline.
type MessageAssembler struct {
	open     map[string]*openMessage
	index    map[string]int
	finished []AssembledMessage
}

func NewMessageAssembler() *MessageAssembler {
	return &MessageAssembler{
		open:  make(map[string]*openMessage),
		index: make(map[string]int),
	}
}

// Open starts accumulating a new message. Message IDs are single use: an ID
// that is currently open or was already closed is rejected.
func (a *MessageAssembler) Open(messageID, role string) error {
	if _, ok := a.open[messageID]; ok {
		return &DuplicateMessageError{MessageID: messageID}
	}
	if _, ok := a.index[messageID]; ok {
		return &DuplicateMessageError{MessageID: messageID}
	}
	a.open[messageID] = &openMessage{role: role}
	return nil
}

// Append concatenates a delta onto an open message.
func (a *MessageAssembler) Append(messageID, delta string) error {
	m, ok := a.open[messageID]
	if !ok {
		return &UnknownMessageError{MessageID: messageID}
	}
	m.content.WriteString(delta)
	return nil
}

// Close finishes an open message and returns its reconstructed content.
func (a *MessageAssembler) Close(messageID string) (AssembledMessage, error) {
	m, ok := a.open[messageID]
	if !ok {
		return AssembledMessage{}, &UnknownMessageError{MessageID: messageID}
	}
	delete(a.open, messageID)

	msg := AssembledMessage{
		ID:      messageID,
		Role:    m.role,
		Content: m.content.String(),
	}
	a.index[messageID] = len(a.finished)
	a.finished = append(a.finished, msg)
	return msg, nil
}

// OpenCount returns the number of messages currently being accumulated.
func (a *MessageAssembler) OpenCount() int {
	return len(a.open)
}

// Finished returns the closed messages in completion order.
func (a *MessageAssembler) Finished() []AssembledMessage {
	out := make([]AssembledMessage, len(a.finished))
	copy(out, a.finished)
	return out
}

// Lookup returns a closed message by ID.
func (a *MessageAssembler) Lookup(messageID string) (AssembledMessage, bool) {
	idx, ok := a.index[messageID]
	if !ok {
		return AssembledMessage{}, false
	}
	return a.finished[idx], true
}
