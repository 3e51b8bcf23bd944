package signalr

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// websocketTransport is the C4 WebSocket Transport, grounded on
// httpconnection.go's websocket.Dial call site and websocketconnection.go's
// read/write split, written against github.com/coder/websocket's
// context-first API, the same library the reference client uses.
type websocketTransport struct {
	url     string
	headers http.Header
	conn    *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
}

func newWebSocketTransport(url string, headers http.Header) *websocketTransport {
	return &websocketTransport{url: url, headers: headers}
}

func (t *websocketTransport) transportType() TransportType { return TransportWebSockets }

func (t *websocketTransport) context() context.Context { return t.ctx }

func (t *websocketTransport) connect(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(context.Background())
	opts := &websocket.DialOptions{HTTPHeader: t.headers}
	conn, _, err := websocket.Dial(ctx, t.url, opts)
	if err != nil {
		t.cancel()
		return &TransportStartFailedError{Transport: TransportWebSockets, Cause: err}
	}
	conn.SetReadLimit(-1)
	t.conn = conn
	return nil
}

func (t *websocketTransport) receive(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		t.cancel()
		return nil, &TransportClosedError{Transport: TransportWebSockets, Cause: err}
	}
	return data, nil
}

func (t *websocketTransport) send(ctx context.Context, data []byte) error {
	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return &TransportSendFailedError{Transport: TransportWebSockets, Cause: err}
	}
	return nil
}

func (t *websocketTransport) close() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(websocket.StatusNormalClosure, "connection closed"); err != nil {
		return fmt.Errorf("close websocket transport: %w", err)
	}
	return nil
}
