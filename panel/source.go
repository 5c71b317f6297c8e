package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Fetcher returns the current weather payload
type Fetcher interface {
	FetchPayload(ctx context.Context) (Payload, error)
}

// ErrPayloadRejected is returned for a payload that only carries a top-level error
var ErrPayloadRejected = errors.New("weather payload reported an error")

// maxBodyBytes caps the payload size; a village forecast of 1000 rows is well below it
const maxBodyBytes = 4 << 20

// HTTPFetcher reads the payload from the proxy endpoint
type HTTPFetcher struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPFetcher creates a fetcher for endpoint, e.g. http://127.0.0.1:9001/api/weather
func NewHTTPFetcher(endpoint string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
		}
	}
	return &HTTPFetcher{
		endpoint:   endpoint,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// FetchPayload requests the payload with a cache-busting timestamp
func (f *HTTPFetcher) FetchPayload(ctx context.Context) (Payload, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return Payload{}, fmt.Errorf("invalid weather endpoint: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("weather request failed (status %d)", resp.StatusCode)
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.Error != "" && payload.NCST.State == SectionAbsent {
		return Payload{}, fmt.Errorf("%w: %s", ErrPayloadRejected, payload.Error)
	}
	return payload, nil
}

// Ensure HTTPFetcher implements Fetcher
var _ Fetcher = (*HTTPFetcher)(nil)
