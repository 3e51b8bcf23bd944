package signalr

import (
	"fmt"
	"net/url"
	"path"
)

// negotiateURL returns "{base}/negotiate" with the given raw query string
// (if any) appended, per spec §4.1.
func negotiateURL(base string, rawQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = path.Join(u.Path, "negotiate")
	if rawQuery != "" {
		u.RawQuery = mergeQuery(u.RawQuery, rawQuery)
	}
	return u.String(), nil
}

// connectURL returns the transport URL for base, rewriting the scheme
// http->ws and https->wss. Any other scheme is an error.
func connectURL(base string, rawQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if rawQuery != "" {
		u.RawQuery = mergeQuery(u.RawQuery, rawQuery)
	}
	return u.String(), nil
}

// sseURL is like connectURL but keeps the http(s) scheme, since the
// Server-Sent Events transport is plain HTTP, not a websocket upgrade.
func sseURL(base string, rawQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if rawQuery != "" {
		u.RawQuery = mergeQuery(u.RawQuery, rawQuery)
	}
	return u.String(), nil
}

// mergeQuery appends extra to existing, collapsing a duplicate leading '&'
// or '?' the way spec §4.1 requires.
func mergeQuery(existing, extra string) string {
	extra = trimLeading(extra, '?')
	extra = trimLeading(extra, '&')
	if existing == "" {
		return extra
	}
	if extra == "" {
		return existing
	}
	return existing + "&" + extra
}

func trimLeading(s string, c byte) string {
	if len(s) > 0 && s[0] == c {
		return s[1:]
	}
	return s
}

// withConnectionID appends the "id" query parameter the way the reference
// client's httpConnection does after a Direct negotiation response.
func withConnectionID(rawURL string, connectionID string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("id", connectionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
