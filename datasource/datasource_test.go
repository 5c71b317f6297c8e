package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type countingSource struct {
	name  string
	calls atomic.Int32
}

func (c *countingSource) Name() string { return c.name }

func (c *countingSource) FetchSection(ctx context.Context) (json.RawMessage, error) {
	c.calls.Add(1)
	return json.RawMessage(`{"ok":true}`), nil
}

func TestRateLimitedSource_Forwards(t *testing.T) {
	src := &countingSource{name: "ncst"}
	limited := NewRateLimitedSource(src, NewLimiter(100, 1))

	assert.Equal(t, "ncst", limited.Name())
	raw, err := limited.FetchSection(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRateLimitedSource_WaitCanceled(t *testing.T) {
	src := &countingSource{name: "fcst"}
	limiter := NewLimiter(0.001, 1)
	limited := NewRateLimitedSource(src, limiter)

	_, err := limited.FetchSection(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.FetchSection(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait canceled")
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRateLimitAll_SharesLimiter(t *testing.T) {
	a, b := &countingSource{name: "a"}, &countingSource{name: "b"}
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	wrapped := RateLimitAll([]SectionSource{a, b}, limiter)
	require.Len(t, wrapped, 2)

	_, err := wrapped[0].FetchSection(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = wrapped[1].FetchSection(ctx)
	assert.Error(t, err, "the second source waits on the shared token bucket")
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestFetchBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Write([]byte(`{"response":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	body, err := FetchBody(context.Background(), srv.Client(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, `{"response":{}}`, string(body))

	_, err = FetchBody(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = FetchBody(context.Background(), srv.Client(), "://bad")
	assert.Error(t, err)
}

func TestBreakerDoer_TripsOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	settings := DefaultBreakerSettings("kma")
	settings.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 }
	settings.Timeout = time.Hour
	doer := NewBreakerDoer(srv.Client(), settings)

	for i := 0; i < 2; i++ {
		_, err := FetchBody(context.Background(), doer, srv.URL)
		assert.ErrorIs(t, err, ErrUpstream)
	}
	assert.Equal(t, gobreaker.StateOpen, doer.State())

	_, err := FetchBody(context.Background(), doer, srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "an open circuit does not reach the server")
}

func TestBreakerDoer_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	settings := DefaultBreakerSettings("airkorea")
	settings.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 }
	doer := NewBreakerDoer(srv.Client(), settings)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := doer.Do(req)
	if err == nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, doer.State())
}

func TestBreakerDoer_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	doer := NewBreakerDoer(nil, DefaultBreakerSettings("kma"))
	_, err := FetchBody(context.Background(), doer, url)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCircuitOpen))
}

func TestUnescapeServiceKey(t *testing.T) {
	assert.Equal(t, "abc+def/==", UnescapeServiceKey("abc%2Bdef%2F%3D%3D"))
	assert.Equal(t, "abc+def", UnescapeServiceKey("abc+def"))
	assert.Equal(t, "bad%zz", UnescapeServiceKey("bad%zz"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "<xml/>", Snippet([]byte("  <xml/>\n")))
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, Snippet(long), 200)
}
