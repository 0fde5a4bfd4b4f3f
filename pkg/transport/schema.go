package transport

import (
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/agui/pkg/events"
)

// Per-kind frame schemas. The decoder checks incoming frames against these
// before handing them to the event factory, so missing correlation IDs and
// empty deltas are caught at the wire boundary with a uniform error.
var frameSchemaSources = map[events.EventType]string{
	events.EventTypeRunStarted: `{
		"type": "object",
		"required": ["type", "threadId", "runId"],
		"properties": {
			"threadId": {"type": "string", "minLength": 1},
			"runId": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeRunFinished: `{
		"type": "object",
		"required": ["type", "threadId", "runId"],
		"properties": {
			"threadId": {"type": "string", "minLength": 1},
			"runId": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeRunError: `{
		"type": "object",
		"required": ["type", "message"],
		"properties": {
			"message": {"type": "string"},
			"code": {"type": "string"}
		}
	}`,
	events.EventTypeStepStarted: `{
		"type": "object",
		"required": ["type", "stepName"],
		"properties": {
			"stepName": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeStepFinished: `{
		"type": "object",
		"required": ["type", "stepName"],
		"properties": {
			"stepName": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeTextMessageStart: `{
		"type": "object",
		"required": ["type", "messageId"],
		"properties": {
			"messageId": {"type": "string", "minLength": 1},
			"role": {"type": "string"}
		}
	}`,
	events.EventTypeTextMessageContent: `{
		"type": "object",
		"required": ["type", "messageId", "delta"],
		"properties": {
			"messageId": {"type": "string", "minLength": 1},
			"delta": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeTextMessageEnd: `{
		"type": "object",
		"required": ["type", "messageId"],
		"properties": {
			"messageId": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeToolCallStart: `{
		"type": "object",
		"required": ["type", "toolCallId", "toolCallName"],
		"properties": {
			"toolCallId": {"type": "string", "minLength": 1},
			"toolCallName": {"type": "string", "minLength": 1},
			"parentMessageId": {"type": "string"}
		}
	}`,
	events.EventTypeToolCallArgs: `{
		"type": "object",
		"required": ["type", "toolCallId", "delta"],
		"properties": {
			"toolCallId": {"type": "string", "minLength": 1},
			"delta": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeToolCallEnd: `{
		"type": "object",
		"required": ["type", "toolCallId"],
		"properties": {
			"toolCallId": {"type": "string", "minLength": 1}
		}
	}`,
	events.EventTypeStateSnapshot: `{
		"type": "object",
		"required": ["type", "snapshot"]
	}`,
	events.EventTypeStateDelta: `{
		"type": "object",
		"required": ["type", "delta"],
		"properties": {
			"delta": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["op", "path"],
					"properties": {
						"op": {"enum": ["add", "remove", "replace", "move", "copy", "test"]},
						"path": {"type": "string"}
					}
				}
			}
		}
	}`,
	events.EventTypeMessagesSnapshot: `{
		"type": "object",
		"required": ["type", "messages"],
		"properties": {
			"messages": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "role"]
				}
			}
		}
	}`,
	events.EventTypeRaw: `{
		"type": "object",
		"required": ["type", "event"]
	}`,
	events.EventTypeCustom: `{
		"type": "object",
		"required": ["type", "name"],
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}`,
}

var frameSchemas map[events.EventType]*gojsonschema.Schema

func init() {
	frameSchemas = make(map[events.EventType]*gojsonschema.Schema, len(frameSchemaSources))
	for typ, src := range frameSchemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(errors.Wrapf(err, "compile frame schema for %s", typ))
		}
		frameSchemas[typ] = schema
	}
}

// validateFramePayload checks a decoded JSON payload against the schema for
// its event type. Types without a schema (registered custom extensions) pass
// through unchecked; the registered codec is their validator.
func validateFramePayload(typ events.EventType, payload []byte) error {
	schema, ok := frameSchemas[typ]
	if !ok {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return errors.Wrap(err, "schema validation")
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return errors.Errorf("schema violation: %s", errs[0].String())
		}
		return errors.New("schema violation")
	}
	return nil
}
