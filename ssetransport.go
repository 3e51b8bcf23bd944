package signalr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sseTransport is the C3b Server-Sent Events Transport, grounded on
// clientsseconnection.go's line-scanning "data:" parser, rewritten to feed
// the transport interface instead of an io.Reader/io.Writer pair. Receiving
// is one-directional (GET, streamed); sending is a separate POST per frame,
// exactly as the reference client does it.
type sseTransport struct {
	getURL  string
	client  doer
	headers http.Header

	frames    chan []byte
	errCh     chan error
	streamCtx context.Context
	cancel    context.CancelFunc
}

func newSSETransport(getURL string, client doer, headers http.Header) *sseTransport {
	return &sseTransport{
		getURL:  getURL,
		client:  client,
		headers: headers,
		frames:  make(chan []byte, 8),
		errCh:   make(chan error, 1),
	}
}

func (t *sseTransport) transportType() TransportType { return TransportServerSentEvents }

func (t *sseTransport) context() context.Context { return t.streamCtx }

func (t *sseTransport) connect(ctx context.Context) error {
	streamCtx, cancel := context.WithCancel(context.Background())
	t.streamCtx = streamCtx
	t.cancel = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.getURL, nil)
	if err != nil {
		cancel()
		return &TransportStartFailedError{Transport: TransportServerSentEvents, Cause: err}
	}
	if t.headers != nil {
		req.Header = t.headers.Clone()
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return &TransportStartFailedError{Transport: TransportServerSentEvents, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		closeResponseBody(resp.Body)
		cancel()
		return &TransportStartFailedError{Transport: TransportServerSentEvents, Cause: fmt.Errorf("GET %s -> %s", t.getURL, resp.Status)}
	}

	go t.pump(resp.Body)
	return nil
}

// pump reads the event stream line by line, accumulating "data:" lines the
// way spec §4.5/C3b requires: each record is itself terminated by the 0x1E
// record separator inside the data payload, so frames can simply be handed
// straight to the hub protocol codec's feed.
func (t *sseTransport) pump(body io.ReadCloser) {
	defer closeResponseBody(body)
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimPrefix(line, "data:")
		if len(data) > 0 && data[0] == ' ' {
			data = data[1:]
		}
		t.frames <- []byte(data)
	}
	if err := scanner.Err(); err != nil {
		t.errCh <- err
	} else {
		t.errCh <- errStreamClosed
	}
	if t.cancel != nil {
		t.cancel()
	}
}

var errStreamClosed = fmt.Errorf("sse stream closed")

func (t *sseTransport) receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-t.frames:
		return data, nil
	case err := <-t.errCh:
		// pump queues every frame before reporting the end of the stream, so
		// hand out any frame still queued before surfacing the closure.
		select {
		case data := <-t.frames:
			t.errCh <- err
			return data, nil
		default:
		}
		return nil, &TransportClosedError{Transport: TransportServerSentEvents, Cause: err}
	}
}

func (t *sseTransport) send(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.getURL, bytes.NewReader(data))
	if err != nil {
		return &TransportSendFailedError{Transport: TransportServerSentEvents, Cause: err}
	}
	if t.headers != nil {
		req.Header = t.headers.Clone()
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return &TransportSendFailedError{Transport: TransportServerSentEvents, Cause: err}
	}
	defer closeResponseBody(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &TransportSendFailedError{Transport: TransportServerSentEvents, Cause: fmt.Errorf("POST %s -> %s", t.getURL, resp.Status)}
	}
	return nil
}

func (t *sseTransport) close() error {
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}
