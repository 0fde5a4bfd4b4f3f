package statesync

import (
	"fmt"

	"github.com/go-go-golems/agui/pkg/events"
)

// InvalidPatchError reports the first operation of a STATE_DELTA that failed
// to apply. The synchronizer guarantees the mirrored state is unchanged when
// this error is returned; the usual recovery is to request a fresh snapshot.
type InvalidPatchError struct {
	OpIndex int
	Op      events.JSONPatchOp
	Err     error
}

func (e *InvalidPatchError) Error() string {
	return fmt.Sprintf("json patch op %d (%s %s) failed: %v", e.OpIndex, e.Op.Op, e.Op.Path, e.Err)
}

func (e *InvalidPatchError) Unwrap() error {
	return e.Err
}
