package signalr

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("URL building", func() {

	Describe("negotiateURL", func() {
		It("appends /negotiate to the base path", func() {
			u, err := negotiateURL("https://example.com/chat", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("https://example.com/chat/negotiate"))
		})

		It("merges an extra raw query", func() {
			u, err := negotiateURL("https://example.com/chat?tenant=a", "token=b")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("https://example.com/chat/negotiate?tenant=a&token=b"))
		})
	})

	Describe("connectURL", func() {
		It("rewrites https to wss", func() {
			u, err := connectURL("https://example.com/chat", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("wss://example.com/chat"))
		})

		It("rewrites http to ws", func() {
			u, err := connectURL("http://example.com/chat", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("ws://example.com/chat"))
		})

		It("rejects unsupported schemes", func() {
			_, err := connectURL("ftp://example.com/chat", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("sseURL", func() {
		It("keeps the http(s) scheme", func() {
			u, err := sseURL("https://example.com/chat", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("https://example.com/chat"))
		})
	})

	Describe("withConnectionID", func() {
		It("sets the id query parameter", func() {
			u, err := withConnectionID("wss://example.com/chat", "abc123")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("wss://example.com/chat?id=abc123"))
		})
	})

	Describe("mergeQuery", func() {
		It("collapses a leading ? or &", func() {
			Expect(mergeQuery("", "?a=1")).To(Equal("a=1"))
			Expect(mergeQuery("a=1", "&b=2")).To(Equal("a=1&b=2"))
			Expect(mergeQuery("a=1", "")).To(Equal("a=1"))
		})
	})
})
