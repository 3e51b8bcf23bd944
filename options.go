package signalr

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

// connectionConfig is the opaque client configuration spec §3's Connection
// entity names ("headers, cookies, certificate material, proxy"), assembled
// by a HubConnectionBuilder's functional options, grounded on the reference
// client's func(Party) error option pattern (party.go, options.go,
// clientoptions.go) but targeting a builder rather than a live Party, since
// this client configures once at construction instead of mutating a running
// connection.
type connectionConfig struct {
	headers     http.Header
	headersFunc func() http.Header
	cookieJar   http.CookieJar
	certs       []tls.Certificate
	proxy       func(*http.Request) (*url.URL, error)
	transports  []TransportType

	keepAliveInterval time.Duration
	timeoutInterval   time.Duration
	handshakeTimeout  time.Duration

	logger   StructuredLogger
	logLevel LogLevel
}

func defaultConnectionConfig() connectionConfig {
	return connectionConfig{
		transports:        []TransportType{TransportWebSockets, TransportServerSentEvents},
		keepAliveInterval: 15 * time.Second,
		timeoutInterval:   30 * time.Second,
		handshakeTimeout:  15 * time.Second,
		logger:            defaultLogger(),
		logLevel:          LogLevelError,
	}
}

// option is a functional option on a HubConnectionBuilder, spec §6
// EXPANSION.
type option func(*HubConnectionBuilder) error

// WithHeaders sets a fixed set of headers sent with the negotiate request
// and every transport connection.
func WithHeaders(headers http.Header) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.headers = headers
		return nil
	}
}

// WithHeadersFunc sets a function called to produce headers fresh on every
// negotiate/connect attempt, for callers whose auth token is refreshed out
// of band.
func WithHeadersFunc(fn func() http.Header) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.headersFunc = fn
		return nil
	}
}

// WithCookieJar sets the cookie jar used by the HTTP client that issues the
// negotiate request and the Server-Sent Events connection.
func WithCookieJar(jar http.CookieJar) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.cookieJar = jar
		return nil
	}
}

// WithClientCertificates adds TLS client certificates to the HTTP transport
// used for negotiate and SSE.
func WithClientCertificates(certs ...tls.Certificate) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.certs = append(b.cfg.certs, certs...)
		return nil
	}
}

// WithProxy sets the proxy function used by the HTTP transport.
func WithProxy(proxy func(*http.Request) (*url.URL, error)) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.proxy = proxy
		return nil
	}
}

// WithTransports restricts which transports Start will attempt, in
// preference order, intersected with the negotiate response's
// availableTransports (spec §4.1 C3a).
func WithTransports(transports ...TransportType) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.transports = transports
		return nil
	}
}

// WithKeepAliveInterval overrides the default 15s keep-alive interval (C7).
func WithKeepAliveInterval(interval time.Duration) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.keepAliveInterval = interval
		return nil
	}
}

// WithTimeoutInterval overrides the default 30s inbound-silence timeout
// (C7). Should be at least double WithKeepAliveInterval's value.
func WithTimeoutInterval(interval time.Duration) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.timeoutInterval = interval
		return nil
	}
}

// WithHandshakeTimeout overrides the default 15s bound on waiting for the
// handshake response after transport connect.
func WithHandshakeTimeout(timeout time.Duration) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.handshakeTimeout = timeout
		return nil
	}
}

// WithLogger sets the StructuredLogger events are written to and the
// minimum level allowed through, grounded on the reference client's
// Logger(logger, debug) option, generalized from a single debug bool to the
// four-level LogLevel enum spec §6 names.
func WithLogger(logger StructuredLogger, level LogLevel) option {
	return func(b *HubConnectionBuilder) error {
		b.cfg.logger = logger
		b.cfg.logLevel = level
		return nil
	}
}

func (c *connectionConfig) requestHeaders() http.Header {
	if c.headersFunc != nil {
		return c.headersFunc()
	}
	if c.headers != nil {
		return c.headers.Clone()
	}
	return http.Header{}
}

func (c *connectionConfig) httpClient() *http.Client {
	client := &http.Client{Jar: c.cookieJar}
	if len(c.certs) > 0 || c.proxy != nil {
		transport := &http.Transport{Proxy: c.proxy}
		if len(c.certs) > 0 {
			transport.TLSClientConfig = &tls.Config{Certificates: c.certs}
		}
		client.Transport = transport
	}
	return client
}
