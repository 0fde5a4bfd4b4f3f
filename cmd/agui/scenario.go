package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/agui/pkg/events"
)

// Scenario is a YAML script of protocol events, used by the replay command.
// Each entry is the JSON shape of one event expressed in YAML, e.g.:
//
//	events:
//	  - type: RUN_STARTED
//	    threadId: t1
//	    runId: r1
//	  - type: TEXT_MESSAGE_START
//	    messageId: m1
//	    role: assistant
type Scenario struct {
	Name   string                   `yaml:"name,omitempty"`
	Events []map[string]interface{} `yaml:"events"`
}

func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}

	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrapf(err, "parse scenario %s", path)
	}
	if len(s.Events) == 0 {
		return nil, errors.Errorf("scenario %s contains no events", path)
	}
	return &s, nil
}

// DecodeEvents turns the scenario entries into typed protocol events by
// round-tripping them through JSON and the event factory.
func (s *Scenario) DecodeEvents() ([]events.Event, error) {
	out := make([]events.Event, 0, len(s.Events))
	for i, entry := range s.Events {
		b, err := json.Marshal(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario event %d", i)
		}
		ev, err := events.NewEventFromJson(b)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario event %d", i)
		}
		out = append(out, ev)
	}
	return out, nil
}
