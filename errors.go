package signalr

import "fmt"

// InvalidStateForStartError is returned by Start when the connection is not
// Disconnected, and by Invoke and Send when it is not Connected. Stop never
// returns it.
type InvalidStateForStartError struct {
	State ClientState
}

func (e *InvalidStateForStartError) Error() string {
	return fmt.Sprintf("start: invalid in state %v", e.State)
}

// NegotiationFailedError wraps a negotiate endpoint failure, either an
// "error" field in the response or an HTTP-level failure.
type NegotiationFailedError struct {
	Msg string
}

func (e *NegotiationFailedError) Error() string {
	return fmt.Sprintf("negotiation failed: %v", e.Msg)
}

// MalformedNegotiationResponseError is returned when a negotiate response is
// valid JSON but matches none of the Direct/Redirect/Error shapes.
type MalformedNegotiationResponseError struct {
	Body string
}

func (e *MalformedNegotiationResponseError) Error() string {
	return fmt.Sprintf("malformed negotiation response: %v", e.Body)
}

// RedirectLimitExceededError is returned when negotiation redirects chain
// past the bound defined by maxNegotiateRedirects.
type RedirectLimitExceededError struct {
	Limit int
}

func (e *RedirectLimitExceededError) Error() string {
	return fmt.Sprintf("negotiate redirected more than %d times", e.Limit)
}

// TransportStartFailedError wraps a failure to open the selected transport.
type TransportStartFailedError struct {
	Transport TransportType
	Cause     error
}

func (e *TransportStartFailedError) Error() string {
	return fmt.Sprintf("%s transport start failed: %v", e.Transport, e.Cause)
}

func (e *TransportStartFailedError) Unwrap() error { return e.Cause }

// TransportSendFailedError wraps a failure writing a record to the transport.
type TransportSendFailedError struct {
	Transport TransportType
	Cause     error
}

func (e *TransportSendFailedError) Error() string {
	return fmt.Sprintf("%s transport send failed: %v", e.Transport, e.Cause)
}

func (e *TransportSendFailedError) Unwrap() error { return e.Cause }

// TransportClosedError is the terminal error surfaced when the transport
// ends the connection unexpectedly (peer close, read error, keep-alive
// timeout).
type TransportClosedError struct {
	Transport TransportType
	Cause     error
}

func (e *TransportClosedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s transport closed", e.Transport)
	}
	return fmt.Sprintf("%s transport closed: %v", e.Transport, e.Cause)
}

func (e *TransportClosedError) Unwrap() error { return e.Cause }

// HandshakeProtocolError is returned when the first record received after
// transport start is missing, malformed, or itself carries an error.
type HandshakeProtocolError struct {
	Msg string
}

func (e *HandshakeProtocolError) Error() string {
	return fmt.Sprintf("handshake failed: %v", e.Msg)
}

// InvocationFailedError is the error an invoke() future settles with when
// the server's Completion frame carries an "error" field (even an empty one).
type InvocationFailedError struct {
	Msg string
}

func (e *InvocationFailedError) Error() string {
	return fmt.Sprintf("invocation failed: %v", e.Msg)
}

// InvalidCompletionError is returned when a Completion frame carries both a
// result and an error, or lacks an invocation id entirely.
type InvalidCompletionError struct {
	Msg string
}

func (e *InvalidCompletionError) Error() string {
	return fmt.Sprintf("invalid completion: %v", e.Msg)
}

// ConnectionClosedError settles pending invocation futures when the
// connection tears down before their Completion arrives.
type ConnectionClosedError struct {
	Cause error
}

func (e *ConnectionClosedError) Error() string {
	if e.Cause == nil {
		return "connection closed"
	}
	return fmt.Sprintf("connection closed: %v", e.Cause)
}

func (e *ConnectionClosedError) Unwrap() error { return e.Cause }

// UnexpectedInboundMessageError is returned (and logged, not fatal to the
// connection) when a server-bound-only message type arrives from the server.
type UnexpectedInboundMessageError struct {
	Type int
}

func (e *UnexpectedInboundMessageError) Error() string {
	return fmt.Sprintf("unexpected inbound message type %d", e.Type)
}

// CloseFrameError is the error a Close frame's optional message becomes:
// when the server's Close frame carries an "error" field, the closed-callback
// receives this and every pending invocation settles with a
// ConnectionClosedError wrapping it, per spec §4.6.
type CloseFrameError struct {
	Msg string
}

func (e *CloseFrameError) Error() string {
	return fmt.Sprintf("server closed the connection: %v", e.Msg)
}
