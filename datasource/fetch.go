package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxUpstreamBody caps a single upstream response
const maxUpstreamBody = 8 << 20

// FetchBody performs a GET and returns the body of a 2xx response
func FetchBody(ctx context.Context, doer Doer, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return body, nil
}

// Snippet shortens a body for error messages. Non-JSON answers from data.go.kr are
// usually an XML error document.
func Snippet(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = strings.ToValidUTF8(s[:maxLen], "")
	}
	return s
}

// UnescapeServiceKey decodes a URL-encoded data.go.kr service key so that query
// encoding applies exactly once. A literal '+' is kept and a key that does not
// decode is returned unchanged.
func UnescapeServiceKey(key string) string {
	if k, err := url.PathUnescape(key); err == nil {
		return k
	}
	return key
}
