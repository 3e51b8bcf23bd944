package signalr

import (
	"context"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type fakeDoer struct {
	responses []func(*http.Request) (*http.Response, error)
	calls     int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	fn := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return fn(req)
}

func jsonResponse(body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

var _ = Describe("negotiate", func() {

	It("classifies a direct response", func() {
		doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
			func(*http.Request) (*http.Response, error) {
				return jsonResponse(`{"connectionId":"abc","availableTransports":[{"transport":"WebSockets","transferFormats":["Text"]}]}`)
			},
		}}
		resp, base, _, err := negotiate(context.Background(), doer, "https://example.com/chat", "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.kind).To(Equal(negotiateDirect))
		Expect(resp.connectionID).To(Equal("abc"))
		Expect(resp.hasTransport(TransportWebSockets)).To(BeTrue())
		Expect(base).To(Equal("https://example.com/chat"))
	})

	It("follows a single redirect and carries the access token forward", func() {
		var seenAuth []string
		doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
			func(*http.Request) (*http.Response, error) {
				return jsonResponse(`{"url":"https://other.example.com/chat","accessToken":"tok"}`)
			},
			func(req *http.Request) (*http.Response, error) {
				seenAuth = append(seenAuth, req.Header.Get("Authorization"))
				return jsonResponse(`{"connectionId":"xyz","availableTransports":[]}`)
			},
		}}
		resp, base, _, err := negotiate(context.Background(), doer, "https://example.com/chat", "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.connectionID).To(Equal("xyz"))
		Expect(base).To(Equal("https://other.example.com/chat"))
		Expect(seenAuth).To(ConsistOf("Bearer tok"))
	})

	It("reports NegotiationFailedError when the response carries an error field", func() {
		doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
			func(*http.Request) (*http.Response, error) {
				return jsonResponse(`{"error":"no soup for you"}`)
			},
		}}
		_, _, _, err := negotiate(context.Background(), doer, "https://example.com/chat", "", nil)
		Expect(err).To(HaveOccurred())
		var negErr *NegotiationFailedError
		Expect(err).To(BeAssignableToTypeOf(negErr))
	})

	It("reports MalformedNegotiationResponseError for an unrecognized shape", func() {
		doer := &fakeDoer{responses: []func(*http.Request) (*http.Response, error){
			func(*http.Request) (*http.Response, error) {
				return jsonResponse(`{"somethingElse":true}`)
			},
		}}
		_, _, _, err := negotiate(context.Background(), doer, "https://example.com/chat", "", nil)
		Expect(err).To(HaveOccurred())
		var malErr *MalformedNegotiationResponseError
		Expect(err).To(BeAssignableToTypeOf(malErr))
	})

	It("bounds an endless redirect chain", func() {
		responses := make([]func(*http.Request) (*http.Response, error), maxNegotiateRedirects+2)
		for i := range responses {
			responses[i] = func(*http.Request) (*http.Response, error) {
				return jsonResponse(`{"url":"https://example.com/chat","accessToken":"tok"}`)
			}
		}
		doer := &fakeDoer{responses: responses}
		_, _, _, err := negotiate(context.Background(), doer, "https://example.com/chat", "", nil)
		Expect(err).To(HaveOccurred())
		var limErr *RedirectLimitExceededError
		Expect(err).To(BeAssignableToTypeOf(limErr))
	})
})
