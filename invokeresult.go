package signalr

import "encoding/json"

// InvokeResult is what an Invoke future settles with: either a JSON Value on
// success or an Error, never both. Grounded on InvokeResult.go, narrowed to
// carry the raw json.RawMessage a Completion frame's "result" field holds
// rather than an already-decoded interface{}, since this client never knows
// the caller's desired Go type for the result.
type InvokeResult struct {
	Value json.RawMessage
	Error error
}

// completionSink is the one-shot settle slot spec §3 "Pending-Invocation
// Table" names: settle is safe to call more than once, only the first call
// has any effect, and a future whose receiver gave up is a no-op, exactly as
// spec's "Completion sinks" design note requires.
type completionSink struct {
	ch chan InvokeResult
}

func newCompletionSink() *completionSink {
	return &completionSink{ch: make(chan InvokeResult, 1)}
}

// settle resolves the sink exactly once; subsequent calls are no-ops.
func (s *completionSink) settle(result InvokeResult) {
	select {
	case s.ch <- result:
	default:
	}
}
