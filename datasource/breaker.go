package datasource

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerDoer wraps an *http.Client with a circuit breaker. Transport errors, 429 and
// 5xx responses count as failures; while the circuit is open requests fail fast
// with ErrCircuitOpen.
type BreakerDoer struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// DefaultBreakerSettings returns the settings used for the data.go.kr services
func DefaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}
}

// NewBreakerDoer creates a BreakerDoer. A nil client uses a 10 second timeout.
func NewBreakerDoer(client *http.Client, settings gobreaker.Settings) *BreakerDoer {
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &BreakerDoer{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Do executes the request through the circuit breaker. A failed response has its
// body closed and is not returned.
func (d *BreakerDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.breaker.Execute(func() (*http.Response, error) {
		r, doErr := d.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			r.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, r.StatusCode)
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", ErrCircuitOpen, d.breaker.Name(), err)
	}
	return resp, err
}

// State returns the current breaker state
func (d *BreakerDoer) State() gobreaker.State {
	return d.breaker.State()
}

// Ensure BreakerDoer implements Doer
var _ Doer = (*BreakerDoer)(nil)
