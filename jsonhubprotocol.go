package signalr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// jsonHubProtocol is the JSON Hub Protocol Codec (spec §4.5). It is
// stateful: feed buffers any trailing partial record across calls, exactly
// as spec requires ("the codec is stateful and must buffer the tail across
// receive callbacks").
type jsonHubProtocol struct {
	buf bytes.Buffer
	dbg StructuredLogger
}

func newJSONHubProtocol() *jsonHubProtocol {
	return &jsonHubProtocol{}
}

func (j *jsonHubProtocol) setDebugLogger(dbg StructuredLogger) {
	j.dbg = dbg
}

func (j *jsonHubProtocol) logDebug(keyvals ...interface{}) {
	if j.dbg != nil {
		_ = j.dbg.Log(keyvals...)
	}
}

// rawMessage mirrors the decode-side wire shape of every hub message type;
// unused fields for a given Type are simply left at their zero value.
// Arguments is left as []json.RawMessage so the codec never interprets
// argument contents, per spec §4.5 "Argument shape". Grounded on the
// reference client's per-type invocationMessage/completionMessage/
// closeMessage split (hubprotocol.go); decoding collapses them into one
// struct since json.Unmarshal tolerates unknown fields per type, but
// encoding goes back through the reference's typed structs below so a record
// only ever carries the fields its type defines.
type rawMessage struct {
	Type         int               `json:"type"`
	InvocationID *string           `json:"invocationId,omitempty"`
	Target       string            `json:"target,omitempty"`
	Arguments    []json.RawMessage `json:"arguments,omitempty"`
	Result       json.RawMessage   `json:"result,omitempty"`
	Error        *string           `json:"error,omitempty"`
	AllowReconnect bool            `json:"allowReconnect,omitempty"`
}

// invocationWire is the send-side encoding of an Invocation record (type 1),
// grounded on the reference client's invocationMessage/
// sendOnlyHubInvocationMessage. invocationId is omitted entirely for a
// one-way Send; arguments is always present, even when empty, matching the
// reference's non-omitempty tag.
type invocationWire struct {
	Type         int               `json:"type"`
	InvocationID *string           `json:"invocationId,omitempty"`
	Target       string            `json:"target"`
	Arguments    []json.RawMessage `json:"arguments"`
}

// pingWire is the send-side encoding of a Ping record (type 6): no payload
// fields at all.
type pingWire struct {
	Type int `json:"type"`
}

// feed implements hubProtocol.feed: it appends newData to the internal
// buffer, then repeatedly splits off and parses every complete
// 0x1E-terminated record, per spec §4.5 decoder operation.
func (j *jsonHubProtocol) feed(newData []byte) ([]hubMessage, error) {
	j.buf.Write(newData)

	var out []hubMessage
	for {
		data := j.buf.Bytes()
		idx := bytes.IndexByte(data, recordSeparator)
		if idx < 0 {
			// No complete record yet; keep the partial prefix buffered.
			break
		}
		record := make([]byte, idx)
		copy(record, data[:idx])
		j.buf.Next(idx + 1)

		msg, err := j.parseRecord(record)
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (j *jsonHubProtocol) parseRecord(record []byte) (hubMessage, error) {
	var raw rawMessage
	if err := json.Unmarshal(record, &raw); err != nil {
		return hubMessage{}, fmt.Errorf("parse hub message: %w", err)
	}
	j.logDebug(evt, "read", msg, string(record))

	m := hubMessage{Type: raw.Type}
	switch raw.Type {
	case msgTypeInvocation, msgTypeStreamInvocation:
		m.Target = raw.Target
		m.Arguments = raw.Arguments
		if raw.InvocationID != nil {
			m.InvocationID = *raw.InvocationID
			m.HasID = true
		}
	case msgTypeStreamItem:
		if raw.InvocationID != nil {
			m.InvocationID = *raw.InvocationID
			m.HasID = true
		}
	case msgTypeCompletion:
		if raw.InvocationID != nil {
			m.InvocationID = *raw.InvocationID
			m.HasID = true
		}
		m.Result = raw.Result
		if raw.Error != nil {
			m.HasError = true
			m.Error = *raw.Error
		}
	case msgTypeCancelInvocation:
		if raw.InvocationID != nil {
			m.InvocationID = *raw.InvocationID
			m.HasID = true
		}
	case msgTypeClose:
		if raw.Error != nil {
			m.HasError = true
			m.Error = *raw.Error
		}
		m.AllowReconnect = raw.AllowReconnect
	case msgTypePing:
		// no payload
	default:
		m.Unknown = true
	}
	return m, nil
}

// encodeHandshake returns the exact handshake record bytes spec §6 names:
// `{"protocol":"json","version":1}` + 0x1E.
func (j *jsonHubProtocol) encodeHandshake() []byte {
	b, _ := json.Marshal(handshakeRequestWire{Protocol: "json", Version: 1})
	return terminate(b)
}

// encodeInvocation encodes an Invocation record (type 1). id is omitted
// (no invocationId field at all) for a one-way Send, per spec §4.5.
func (j *jsonHubProtocol) encodeInvocation(id string, target string, args []json.RawMessage) ([]byte, error) {
	raw := invocationWire{
		Type:      msgTypeInvocation,
		Target:    target,
		Arguments: args,
	}
	if id != "" {
		raw.InvocationID = &id
	}
	if raw.Arguments == nil {
		raw.Arguments = []json.RawMessage{}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode invocation: %w", err)
	}
	return terminate(b), nil
}

// encodePing returns a `{"type":6}` record. Reserved for keep-alive (§4.5).
func (j *jsonHubProtocol) encodePing() []byte {
	b, _ := json.Marshal(pingWire{Type: msgTypePing})
	return terminate(b)
}

func (j *jsonHubProtocol) writeTo(w io.Writer, data []byte) error {
	j.logDebug(evt, "write", msg, string(bytes.TrimSuffix(data, []byte{recordSeparator})))
	_, err := w.Write(data)
	return err
}

func terminate(b []byte) []byte {
	return append(b, recordSeparator)
}
