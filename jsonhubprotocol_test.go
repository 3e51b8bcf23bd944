package signalr

import (
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("JSON Hub Protocol", func() {

	Describe("feed", func() {
		It("parses a single complete record", func() {
			p := newJSONHubProtocol()
			msgs, err := p.feed([]byte(`{"type":6}` + "\x1e"))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Type).To(Equal(msgTypePing))
		})

		It("buffers a partial record across calls", func() {
			p := newJSONHubProtocol()
			msgs, err := p.feed([]byte(`{"type":1,"targ`))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())

			msgs, err = p.feed([]byte(`et":"Echo","arguments":["hi"]}` + "\x1e"))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Target).To(Equal("Echo"))
		})

		It("splits two records delivered in one frame", func() {
			p := newJSONHubProtocol()
			frame := `{"type":6}` + "\x1e" + `{"type":7,"error":"bye"}` + "\x1e"
			msgs, err := p.feed([]byte(frame))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Type).To(Equal(msgTypePing))
			Expect(msgs[1].Type).To(Equal(msgTypeClose))
			Expect(msgs[1].Error).To(Equal("bye"))
		})

		It("decodes a Completion with a result", func() {
			p := newJSONHubProtocol()
			msgs, err := p.feed([]byte(`{"type":3,"invocationId":"0","result":"hi"}` + "\x1e"))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs[0].HasID).To(BeTrue())
			Expect(msgs[0].InvocationID).To(Equal("0"))
			Expect(string(msgs[0].Result)).To(Equal(`"hi"`))
			Expect(msgs[0].HasError).To(BeFalse())
		})

		It("decodes a Completion with an error", func() {
			p := newJSONHubProtocol()
			msgs, err := p.feed([]byte(`{"type":3,"invocationId":"0","error":"boom"}` + "\x1e"))
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs[0].HasError).To(BeTrue())
			Expect(msgs[0].Error).To(Equal("boom"))
		})
	})

	Describe("encodeInvocation", func() {
		It("round-trips id, target and arguments", func() {
			p := newJSONHubProtocol()
			args := []json.RawMessage{json.RawMessage(`"hi"`), json.RawMessage(`42`)}
			data, err := p.encodeInvocation("0", "Echo", args)
			Expect(err).NotTo(HaveOccurred())

			decoder := newJSONHubProtocol()
			msgs, err := decoder.feed(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].InvocationID).To(Equal("0"))
			Expect(msgs[0].Target).To(Equal("Echo"))
			Expect(msgs[0].Arguments).To(HaveLen(2))
		})

		It("omits invocationId entirely for a one-way Send", func() {
			p := newJSONHubProtocol()
			data, err := p.encodeInvocation("", "Notify", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("invocationId"))
		})
	})

	Describe("encodeHandshake", func() {
		It("emits the json protocol version 1 handshake", func() {
			p := newJSONHubProtocol()
			Expect(string(p.encodeHandshake())).To(Equal(`{"protocol":"json","version":1}` + "\x1e"))
		})
	})
})
