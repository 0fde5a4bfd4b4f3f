package assembler

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// AssembledToolCall is a fully reconstructed tool invocation request. The
// Arguments string is the exact concatenation of all TOOL_CALL_ARGS deltas;
// it is expected to form valid JSON once the call is closed, but intermediate
// fragments need not parse.
type AssembledToolCall struct {
	ID              string
	Name            string
	ParentMessageID string
	Arguments       string
}

// ArgumentsJSON parses the accumulated argument string.
func (t AssembledToolCall) ArgumentsJSON() (json.RawMessage, error) {
	if !json.Valid([]byte(t.Arguments)) {
		return nil, errors.Errorf("tool call %q arguments are not valid JSON", t.ID)
	}
	return json.RawMessage(t.Arguments), nil
}

type openToolCall struct {
	name            string
	parentMessageID string
	args            strings.Builder
}

// ToolCallAssembler accumulates TOOL_CALL_START/ARGS/END brackets into
// complete tool calls, keyed by tool call ID. Same single-use, arrival-order
// contract as MessageAssembler.
type ToolCallAssembler struct {
	open     map[string]*openToolCall
	index    map[string]int
	finished []AssembledToolCall
}

func NewToolCallAssembler() *ToolCallAssembler {
	return &ToolCallAssembler{
		open:  make(map[string]*openToolCall),
		index: make(map[string]int),
	}
}

// Open starts accumulating a new tool call.
func (a *ToolCallAssembler) Open(toolCallID, name, parentMessageID string) error {
	if _, ok := a.open[toolCallID]; ok {
		return &DuplicateToolCallError{ToolCallID: toolCallID}
	}
	if _, ok := a.index[toolCallID]; ok {
		return &DuplicateToolCallError{ToolCallID: toolCallID}
	}
	a.open[toolCallID] = &openToolCall{name: name, parentMessageID: parentMessageID}
	return nil
}

// Append concatenates an argument fragment onto an open tool call.
func (a *ToolCallAssembler) Append(toolCallID, delta string) error {
	t, ok := a.open[toolCallID]
	if !ok {
		return &UnknownToolCallError{ToolCallID: toolCallID}
	}
	t.args.WriteString(delta)
	return nil
}

// Close finishes an open tool call and returns the accumulated call.
func (a *ToolCallAssembler) Close(toolCallID string) (AssembledToolCall, error) {
	t, ok := a.open[toolCallID]
	if !ok {
		return AssembledToolCall{}, &UnknownToolCallError{ToolCallID: toolCallID}
	}
	delete(a.open, toolCallID)

	call := AssembledToolCall{
		ID:              toolCallID,
		Name:            t.name,
		ParentMessageID: t.parentMessageID,
		Arguments:       t.args.String(),
	}
	a.index[toolCallID] = len(a.finished)
	a.finished = append(a.finished, call)
	return call, nil
}

// OpenCount returns the number of tool calls currently being accumulated.
func (a *ToolCallAssembler) OpenCount() int {
	return len(a.open)
}

// Finished returns the closed tool calls in completion order.
func (a *ToolCallAssembler) Finished() []AssembledToolCall {
	out := make([]AssembledToolCall, len(a.finished))
	copy(out, a.finished)
	return out
}

// Lookup returns a closed tool call by ID.
func (a *ToolCallAssembler) Lookup(toolCallID string) (AssembledToolCall, bool) {
	idx, ok := a.index[toolCallID]
	if !ok {
		return AssembledToolCall{}, false
	}
	return a.finished[idx], true
}
