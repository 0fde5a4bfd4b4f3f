package events

import "encoding/json"

// Message roles carried by TEXT_MESSAGE_START and MESSAGES_SNAPSHOT.
const (
	RoleDeveloper = "developer"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history. Assistant messages may
// carry tool calls; tool messages reference the call they answer via
// ToolCallID.
type Message struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

// ToolCall is a completed request by the agent to invoke a function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallTypeFunction is the only tool call type the protocol defines.
const ToolCallTypeFunction = "function"

// ToolDefinition describes a tool the client makes available for a run.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  interface{} `json:"parameters,omitempty"`
}

// RunAgentInput is the explicit invocation parameter for one run. Tool
// definitions are passed here rather than kept in ambient registries.
type RunAgentInput struct {
	ThreadID string           `json:"threadId"`
	RunID    string           `json:"runId"`
	Messages []Message        `json:"messages,omitempty"`
	State    interface{}      `json:"state,omitempty"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Context  interface{}      `json:"context,omitempty"`
}

// JSONPatchOp is a single RFC 6902 operation as carried by STATE_DELTA.
type JSONPatchOp struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	From  string      `json:"from,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// MarshalJSON always writes the value member for the operation kinds that
// require one (add, replace, test), so an explicit JSON null survives the
// round trip. omitempty alone cannot tell a null value from an absent one.
func (op JSONPatchOp) MarshalJSON() ([]byte, error) {
	switch op.Op {
	case "add", "replace", "test":
		return json.Marshal(struct {
			Op    string      `json:"op"`
			Path  string      `json:"path"`
			From  string      `json:"from,omitempty"`
			Value interface{} `json:"value"`
		}{op.Op, op.Path, op.From, op.Value})
	}
	return json.Marshal(struct {
		Op    string      `json:"op"`
		Path  string      `json:"path"`
		From  string      `json:"from,omitempty"`
		Value interface{} `json:"value,omitempty"`
	}{op.Op, op.Path, op.From, op.Value})
}
