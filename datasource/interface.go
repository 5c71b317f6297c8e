package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// SectionSource fetches one section of the weather payload
type SectionSource interface {
	// Name returns the payload section the source fills, e.g. "ncst"
	Name() string

	// FetchSection returns the upstream response body as received
	FetchSection(ctx context.Context) (json.RawMessage, error)
}

// Doer sends HTTP requests; *http.Client and *BreakerDoer satisfy it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	// ErrMissingServiceKey is returned when no data.go.kr service key is configured
	ErrMissingServiceKey = errors.New("PUBLIC_DATA_SERVICE_KEY is missing")

	// ErrUpstream marks a response the upstream service rejected
	ErrUpstream = errors.New("upstream error")

	// ErrCircuitOpen is returned while the upstream circuit breaker is open
	ErrCircuitOpen = errors.New("upstream circuit open")
)
