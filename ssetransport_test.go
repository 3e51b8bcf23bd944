package signalr

import (
	"context"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// sseDoer serves one fixed GET response body (the event stream) and records
// every POST body sent through send().
type sseDoer struct {
	streamBody string
	posts      [][]byte
}

func (d *sseDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		b, _ := io.ReadAll(req.Body)
		d.posts = append(d.posts, b)
		return &http.Response{StatusCode: http.StatusAccepted, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(d.streamBody))}, nil
}

var _ = Describe("sseTransport", func() {

	It("decodes a record carried whole in a single data: line", func() {
		doer := &sseDoer{streamBody: "data: {\"type\":6}\x1e\n\n"}
		tr := newSSETransport("https://example.com/chat", doer, nil)
		Expect(tr.connect(context.Background())).To(Succeed())

		data, err := tr.receive(context.Background())
		Expect(err).NotTo(HaveOccurred())

		proto := newJSONHubProtocol()
		msgs, err := proto.feed(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Type).To(Equal(msgTypePing))
	})

	It("decodes a record split across two data: lines", func() {
		// The 0x1E-terminated JSON record itself is split mid-stream across
		// two SSE "data:" lines; the hub protocol codec must buffer the
		// first half until the second line's bytes complete the record,
		// exactly as it does for a split WebSocket frame.
		first := `data: {"type":3,"invocationId":"1","result":`
		second := "data: 42}\x1e\n\n"
		doer := &sseDoer{streamBody: first + "\n" + second}
		tr := newSSETransport("https://example.com/chat", doer, nil)
		Expect(tr.connect(context.Background())).To(Succeed())

		proto := newJSONHubProtocol()
		var msgs []hubMessage
		for len(msgs) == 0 {
			data, err := tr.receive(context.Background())
			Expect(err).NotTo(HaveOccurred())
			decoded, err := proto.feed(data)
			Expect(err).NotTo(HaveOccurred())
			msgs = append(msgs, decoded...)
		}
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Type).To(Equal(msgTypeCompletion))
		Expect(msgs[0].InvocationID).To(Equal("1"))
		Expect(string(msgs[0].Result)).To(Equal("42"))
	})

	It("ignores non-data lines and ends receive with TransportClosedError when the stream ends", func() {
		doer := &sseDoer{streamBody: ": comment\n\ndata: {\"type\":6}\x1e\n\n"}
		tr := newSSETransport("https://example.com/chat", doer, nil)
		Expect(tr.connect(context.Background())).To(Succeed())

		var frames [][]byte
		var finalErr error
		for finalErr == nil {
			data, err := tr.receive(context.Background())
			if err != nil {
				finalErr = err
				break
			}
			frames = append(frames, data)
		}
		Expect(frames).To(HaveLen(1))
		Expect(string(frames[0])).To(Equal(`{"type":6}` + "\x1e"))
		var closedErr *TransportClosedError
		Expect(finalErr).To(BeAssignableToTypeOf(closedErr))
	})

	It("POSTs each send() payload as the request body", func() {
		doer := &sseDoer{streamBody: ""}
		tr := newSSETransport("https://example.com/chat", doer, nil)
		Expect(tr.connect(context.Background())).To(Succeed())

		Expect(tr.send(context.Background(), []byte(`{"type":6}`+"\x1e"))).To(Succeed())
		Expect(doer.posts).To(HaveLen(1))
		Expect(string(doer.posts[0])).To(Equal(`{"type":6}` + "\x1e"))
	})
})
