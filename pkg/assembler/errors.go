package assembler

import "fmt"

// UnknownMessageError is raised when content or end events reference a
// message ID that was never opened (or was already closed).
type UnknownMessageError struct {
	MessageID string
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("no open message with id %q", e.MessageID)
}

// DuplicateMessageError is raised when a message ID is opened twice. IDs are
// single use: re-opening after close is rejected as well.
type DuplicateMessageError struct {
	MessageID string
}

func (e *DuplicateMessageError) Error() string {
	return fmt.Sprintf("message id %q already used", e.MessageID)
}

// UnknownToolCallError mirrors UnknownMessageError for tool call IDs.
type UnknownToolCallError struct {
	ToolCallID string
}

func (e *UnknownToolCallError) Error() string {
	return fmt.Sprintf("no open tool call with id %q", e.ToolCallID)
}

// DuplicateToolCallError mirrors DuplicateMessageError for tool call IDs.
type DuplicateToolCallError struct {
	ToolCallID string
}

func (e *DuplicateToolCallError) Error() string {
	return fmt.Sprintf("tool call id %q already used", e.ToolCallID)
}
