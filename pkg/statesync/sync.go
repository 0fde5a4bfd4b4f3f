// Package statesync mirrors the agent's state document on the observer side.
// The document is replaced wholesale by STATE_SNAPSHOT and mutated by
// STATE_DELTA, an ordered list of RFC 6902 operations applied atomically:
// either every operation succeeds and the mirror advances, or none does and
// the mirror is untouched.
package statesync

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	clone "github.com/huandu/go-clone"
	"github.com/pkg/errors"

	"github.com/go-go-golems/agui/pkg/events"
)

// Synchronizer holds the mirrored state for one run. Not safe for concurrent
// use; each run owns one synchronizer on its single event pipeline.
type Synchronizer struct {
	doc   json.RawMessage
	value interface{}
	has   bool
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// HasState reports whether a snapshot or delta has established a document.
func (s *Synchronizer) HasState() bool {
	return s.has
}

// State returns a deep copy of the mirrored document, so callers can never
// mutate the mirror behind the synchronizer's back. Returns nil before the
// first snapshot.
func (s *Synchronizer) State() interface{} {
	if !s.has {
		return nil
	}
	return clone.Clone(s.value)
}

// ApplySnapshot unconditionally replaces the mirrored document.
func (s *Synchronizer) ApplySnapshot(snapshot interface{}) error {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "state snapshot is not serializable")
	}
	return s.commit(b)
}

// ApplyDelta applies all operations against a scratch copy of the document
// and commits only if every one of them succeeds. Applying ops one at a time
// keeps the index of the failing operation available for diagnosis.
func (s *Synchronizer) ApplyDelta(ops []events.JSONPatchOp) error {
	if len(ops) == 0 {
		return nil
	}

	scratch := s.doc
	if scratch == nil {
		scratch = json.RawMessage("null")
	}

	for i, op := range ops {
		opBytes, err := json.Marshal([]events.JSONPatchOp{op})
		if err != nil {
			return &InvalidPatchError{OpIndex: i, Op: op, Err: err}
		}
		patch, err := jsonpatch.DecodePatch(opBytes)
		if err != nil {
			return &InvalidPatchError{OpIndex: i, Op: op, Err: err}
		}
		next, err := patch.Apply(scratch)
		if err != nil {
			return &InvalidPatchError{OpIndex: i, Op: op, Err: err}
		}
		scratch = next
	}

	return s.commit(scratch)
}

func (s *Synchronizer) commit(doc json.RawMessage) error {
	var value interface{}
	if err := json.Unmarshal(doc, &value); err != nil {
		return errors.Wrap(err, "patched state document is not valid JSON")
	}
	s.doc = doc
	s.value = value
	s.has = true
	return nil
}
