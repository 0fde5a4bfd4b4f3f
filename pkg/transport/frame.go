// Package transport moves protocol events across a byte boundary: one
// self-delimited SSE frame per event on the way out, schema-checked decoding
// on the way in, and a watermill router for in-process distribution. The
// adapter preserves arrival order end to end; the assembler and the run
// state machine depend on it.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/go-go-golems/agui/pkg/events"
)

// MalformedFrameError reports a frame that could not be interpreted as any
// known event kind. The decoder stays usable: one bad frame never corrupts
// the handling of well-formed frames that follow it.
type MalformedFrameError struct {
	Frame []byte
	Err   error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", truncateFrame(e.Frame), e.Err)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

func truncateFrame(b []byte) string {
	const max = 120
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

// Encoder turns events into SSE frames: `data: <json>` terminated by a blank
// line. A frame for an event without a timestamp carries one stamped at
// encode time; the event itself is left untouched.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(ev events.Event) ([]byte, error) {
	var payload []byte
	var err error
	if enc := events.LookupEventEncoder(string(ev.Type())); enc != nil {
		payload, err = enc(ev)
	} else {
		payload, err = json.Marshal(ev)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s event", ev.Type())
	}

	if ev.Timestamp() == 0 {
		// stamp the frame, never the caller's event
		payload, err = stampTimestamp(payload, time.Now().UnixMilli())
		if err != nil {
			return nil, errors.Wrapf(err, "stamp %s event", ev.Type())
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + 8)
	buf.WriteString("data: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

func stampTimestamp(payload []byte, ts int64) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		// non-object payloads from custom encoders go out as-is
		return payload, nil
	}
	fields["timestamp"] = json.RawMessage(strconv.FormatInt(ts, 10))
	return json.Marshal(fields)
}

// WriteEvent encodes the event and writes the frame to w.
func (e *Encoder) WriteEvent(w io.Writer, ev events.Event) error {
	frame, err := e.Encode(ev)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return errors.Wrap(err, "write frame")
}

// Decoder reads SSE frames off an ordered byte stream and yields events.
// Comment lines and non-data SSE fields (`event:`, `id:`, `retry:`) are
// tolerated; multiple `data:` lines in one frame are joined with newlines
// per the SSE specification.
type Decoder struct {
	scanner *bufio.Scanner
}

const maxFrameSize = 1024 * 1024

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next event on the stream, io.EOF when the stream is
// exhausted, or a MalformedFrameError for a frame that does not decode. After
// a malformed frame the decoder can keep being called for the frames behind
// it.
func (d *Decoder) Next() (events.Event, error) {
	var data []string

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		if line == "" {
			if len(data) > 0 {
				return decodePayload([]byte(strings.Join(data, "\n")))
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			// SSE comment
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			return nil, &MalformedFrameError{Frame: []byte(line), Err: errors.New("line is not an SSE field")}
		}
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, value)
		}
		// other SSE fields carry no event payload
	}

	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		// stream ended without a trailing blank line
		return decodePayload([]byte(strings.Join(data, "\n")))
	}
	return nil, io.EOF
}

// Decode interprets a single self-contained frame.
func Decode(frame []byte) (events.Event, error) {
	return NewDecoder(bytes.NewReader(frame)).Next()
}

// DecodeEventJSON validates and decodes a bare JSON event payload, without
// SSE framing. Ingestion endpoints that receive events as request bodies go
// through the same schema checks as framed streams.
func DecodeEventJSON(payload []byte) (events.Event, error) {
	return decodePayload(payload)
}

func decodePayload(payload []byte) (events.Event, error) {
	var hdr struct {
		Type events.EventType `json:"type"`
	}
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return nil, &MalformedFrameError{Frame: payload, Err: errors.Wrap(err, "frame is not valid JSON")}
	}
	if hdr.Type == "" {
		return nil, &MalformedFrameError{Frame: payload, Err: errors.New("frame has no type discriminator")}
	}

	if err := validateFramePayload(hdr.Type, payload); err != nil {
		return nil, &MalformedFrameError{Frame: payload, Err: err}
	}

	ev, err := events.NewEventFromJson(payload)
	if err != nil {
		return nil, &MalformedFrameError{Frame: payload, Err: err}
	}
	return ev, nil
}
