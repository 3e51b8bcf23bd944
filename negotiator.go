package signalr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxNegotiateRedirects bounds the redirect chain per spec §4.2.
const maxNegotiateRedirects = 100

// doer is the subset of *http.Client the negotiator needs, grounded on the
// reference client's Doer interface - it lets callers substitute their own
// *http.Client (proxy, TLS, cookie jar already configured) without this
// package depending on the concrete type.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// negotiateOnce issues a single negotiate POST and classifies the response.
// It never follows redirects itself; that is the caller's job so it can
// enforce the redirect bound and swap in the Authorization header.
func negotiateOnce(ctx context.Context, client doer, base string, rawQuery string, headers http.Header) (*negotiateResponse, error) {
	reqURL, err := negotiateURL(base, rawQuery)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build negotiate request: %w", err)
	}
	if headers != nil {
		req.Header = headers.Clone()
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NegotiationFailedError{Msg: err.Error()}
	}
	defer closeResponseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &NegotiationFailedError{Msg: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NegotiationFailedError{Msg: err.Error()}
	}

	raw := rawNegotiateResponse{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedNegotiationResponseError{Body: string(body)}
	}
	return classifyNegotiateResponse(&raw, string(body))
}

// negotiate follows a Redirect chain (bounded at maxNegotiateRedirects) down
// to a Direct response, injecting each redirect's accessToken as a Bearer
// Authorization header on the follow-up negotiate, as spec §4.2 requires.
// It returns the final Direct response, the base URL it was obtained from
// (which may differ from base after redirects) and the headers to use for
// the subsequent transport connect (carrying the last access token, if any).
func negotiate(ctx context.Context, client doer, base string, rawQuery string, headers http.Header) (resp *negotiateResponse, effectiveBase string, effectiveHeaders http.Header, err error) {
	effectiveBase = base
	effectiveHeaders = headers
	redirects := 0
	for {
		resp, err = negotiateOnce(ctx, client, effectiveBase, rawQuery, effectiveHeaders)
		if err != nil {
			return nil, "", nil, err
		}
		if resp.kind != negotiateRedirect {
			return resp, effectiveBase, effectiveHeaders, nil
		}
		redirects++
		if redirects > maxNegotiateRedirects {
			return nil, "", nil, &RedirectLimitExceededError{Limit: maxNegotiateRedirects}
		}
		effectiveBase = resp.redirectURL
		effectiveHeaders = withBearerToken(effectiveHeaders, resp.redirectAccessToken)
	}
}

func withBearerToken(headers http.Header, token string) http.Header {
	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// closeResponseBody drains and closes a response body so the underlying
// connection can be reused, grounded on httpconnection.go's helper of the
// same name.
func closeResponseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
