package signalr

// ClientState is a state of the Hub Connection state machine (spec §4.6).
// Exactly one terminal transition leaves any state; the only way back to
// Disconnected from a later state is through a full Stop, and the only way
// out of Disconnected is a fresh Start.
type ClientState int

const (
	// Disconnected is the initial state, and the terminal state reached
	// after a clean Stop or an unrecoverable failure.
	Disconnected ClientState = iota
	// Connecting is entered by Start; negotiation and transport connect
	// happen in this state.
	Connecting
	// HandshakeSent is entered once the transport is open and the client's
	// handshake record has been written; it ends when the first inbound
	// record (the handshake response) arrives.
	HandshakeSent
	// Connected is entered once the handshake response is accepted. Invoke
	// and Send are only valid in this state.
	Connected
	// Disconnecting is entered by Stop, by a Close frame, or by transport
	// loss while Connected; it ends when the transport has fully stopped.
	Disconnecting
)

func (s ClientState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case HandshakeSent:
		return "handshakeSent"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
