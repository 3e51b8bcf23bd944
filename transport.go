package signalr

import "context"

// transport is the Transport Abstraction (component C3): a bidirectional
// carrier of raw wire bytes that the Hub Connection drives without knowing
// which concrete protocol (WebSocket, SSE) sits underneath, grounded on the
// reference client's Connection interface, narrowed to what a client-only
// transport actually needs.
type transport interface {
	// connect dials the transport and blocks until it is ready to send and
	// receive, or returns an error wrapped in TransportStartFailedError.
	connect(ctx context.Context) error

	// receive blocks until the next frame of bytes arrives off the wire, ctx
	// is cancelled, or the transport closes. The returned bytes are handed
	// to the hub protocol codec's feed, so frame boundaries need not align
	// with record boundaries.
	receive(ctx context.Context) ([]byte, error)

	// send writes an already record-terminated frame to the wire.
	send(ctx context.Context, data []byte) error

	// close tears the transport down. Safe to call more than once.
	close() error

	// transportType reports which TransportType this transport implements,
	// for logging and for the C3a transport fallback order.
	transportType() TransportType

	// context returns the transport's own lifecycle context, cancelled when
	// the transport closes for any reason (peer close, read error, local
	// close()). The Hub Connection merges this with the caller's context via
	// teivah/onecontext, grounded on the reference client's
	// onecontext.Merge(c.ctx, c.conn.Context()) in client.go's Start.
	context() context.Context
}
