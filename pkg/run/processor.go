package run

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/agui/pkg/assembler"
	"github.com/go-go-golems/agui/pkg/events"
	"github.com/go-go-golems/agui/pkg/sinks"
	"github.com/go-go-golems/agui/pkg/statesync"
)

// Processor drives a complete run pipeline: the state machine validates
// ordering, the assemblers reconstruct messages and tool calls, and the
// synchronizer mirrors state. It implements sinks.EventSink so it can sit
// directly behind a transport handler.
//
// One processor per run, fed from a single goroutine.
type Processor struct {
	machine   *Machine
	messages  *assembler.MessageAssembler
	toolCalls *assembler.ToolCallAssembler
	state     *statesync.Synchronizer

	history  []events.Message
	runError *events.EventRunError

	forward sinks.EventSink
	logger  zerolog.Logger
}

type ProcessorOption func(*Processor)

// WithForwardSink forwards every successfully applied event to the given
// sink, e.g. to fan processed events back out on a bus.
func WithForwardSink(sink sinks.EventSink) ProcessorOption {
	return func(p *Processor) {
		p.forward = sink
	}
}

func WithLogger(logger zerolog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

func NewProcessor(options ...ProcessorOption) *Processor {
	ret := &Processor{
		machine:   NewMachine(),
		messages:  assembler.NewMessageAssembler(),
		toolCalls: assembler.NewToolCallAssembler(),
		state:     statesync.NewSynchronizer(),
		logger:    log.Logger,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// PublishEvent implements sinks.EventSink by applying the event.
func (p *Processor) PublishEvent(ev events.Event) error {
	return p.Apply(ev)
}

var _ sinks.EventSink = (*Processor)(nil)

// Apply validates and applies one event. A returned error means the event
// was rejected; except for state delta failures (which only leave the state
// mirror stale) the rest of the pipeline is untouched by a rejected event.
func (p *Processor) Apply(ev events.Event) error {
	if err := events.Validate(ev); err != nil {
		return err
	}
	if err := p.machine.Apply(ev); err != nil {
		return err
	}

	if err := p.dispatch(ev); err != nil {
		return err
	}

	p.logger.Trace().Str("event_type", string(ev.Type())).Str("run_id", p.machine.RunID()).
		Msg("applied event")

	if p.forward != nil {
		if err := p.forward.PublishEvent(ev); err != nil {
			p.logger.Warn().Err(err).Str("event_type", string(ev.Type())).
				Msg("failed to forward event")
		}
	}
	return nil
}

func (p *Processor) dispatch(ev events.Event) error {
	switch ev := ev.(type) {
	case *events.EventTextMessageStart:
		role := ev.Role
		if role == "" {
			role = events.RoleAssistant
		}
		return p.messages.Open(ev.MessageID, role)
	case *events.EventTextMessageContent:
		return p.messages.Append(ev.MessageID, ev.Delta)
	case *events.EventTextMessageEnd:
		msg, err := p.messages.Close(ev.MessageID)
		if err != nil {
			return err
		}
		p.history = append(p.history, events.Message{
			ID:      msg.ID,
			Role:    msg.Role,
			Content: msg.Content,
		})
	case *events.EventToolCallStart:
		return p.toolCalls.Open(ev.ToolCallID, ev.ToolCallName, ev.ParentMessageID)
	case *events.EventToolCallArgs:
		return p.toolCalls.Append(ev.ToolCallID, ev.Delta)
	case *events.EventToolCallEnd:
		call, err := p.toolCalls.Close(ev.ToolCallID)
		if err != nil {
			return err
		}
		p.recordToolCall(call)
	case *events.EventStateSnapshot:
		return p.state.ApplySnapshot(ev.Snapshot)
	case *events.EventStateDelta:
		return p.state.ApplyDelta(ev.Delta)
	case *events.EventMessagesSnapshot:
		p.history = append([]events.Message(nil), ev.Messages...)
	case *events.EventRunError:
		p.runError = ev
	}
	return nil
}

// recordToolCall attaches a completed tool call to its parent assistant
// message in the history, or appends a new assistant message when the call
// has no (or an unknown) parent.
func (p *Processor) recordToolCall(call assembler.AssembledToolCall) {
	tc := events.ToolCall{
		ID:   call.ID,
		Type: events.ToolCallTypeFunction,
		Function: events.FunctionCall{
			Name:      call.Name,
			Arguments: call.Arguments,
		},
	}
	if call.ParentMessageID != "" {
		for i := range p.history {
			if p.history[i].ID == call.ParentMessageID {
				p.history[i].ToolCalls = append(p.history[i].ToolCalls, tc)
				return
			}
		}
	}
	id := call.ParentMessageID
	if id == "" {
		id = call.ID
	}
	p.history = append(p.history, events.Message{
		ID:        id,
		Role:      events.RoleAssistant,
		ToolCalls: []events.ToolCall{tc},
	})
}

// Phase returns the lifecycle phase of the run.
func (p *Processor) Phase() Phase {
	return p.machine.Phase()
}

// Machine exposes the underlying state machine.
func (p *Processor) Machine() *Machine {
	return p.machine
}

// RunError returns the RUN_ERROR event that terminated the run, if any.
func (p *Processor) RunError() *events.EventRunError {
	return p.runError
}

// Messages returns the reconstructed messages in completion order.
func (p *Processor) Messages() []assembler.AssembledMessage {
	return p.messages.Finished()
}

// ToolCalls returns the reconstructed tool calls in completion order.
func (p *Processor) ToolCalls() []assembler.AssembledToolCall {
	return p.toolCalls.Finished()
}

// State returns a deep copy of the mirrored state document.
func (p *Processor) State() interface{} {
	return p.state.State()
}

// History returns the conversation history built from ended messages, ended
// tool calls and MESSAGES_SNAPSHOT replacements.
func (p *Processor) History() []events.Message {
	out := make([]events.Message, len(p.history))
	copy(out, p.history)
	return out
}
