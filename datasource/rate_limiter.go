package datasource

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedSource wraps a SectionSource with rate limiting
type RateLimitedSource struct {
	source  SectionSource
	limiter *rate.Limiter
}

// NewRateLimitedSource creates a rate limited section source. Sources that call the
// same upstream host should share one limiter.
func NewRateLimitedSource(source SectionSource, limiter *rate.Limiter) *RateLimitedSource {
	return &RateLimitedSource{
		source:  source,
		limiter: limiter,
	}
}

// NewLimiter creates a limiter allowing rps requests per second (can be fractional)
// with the given burst
func NewLimiter(rps float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimitAll wraps every source with the same limiter
func RateLimitAll(sources []SectionSource, limiter *rate.Limiter) []SectionSource {
	out := make([]SectionSource, len(sources))
	for i, s := range sources {
		out[i] = NewRateLimitedSource(s, limiter)
	}
	return out
}

// FetchSection fetches the section, respecting rate limits
func (r *RateLimitedSource) FetchSection(ctx context.Context) (json.RawMessage, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.source.FetchSection(ctx)
}

// Name returns the section name of the wrapped source
func (r *RateLimitedSource) Name() string {
	return r.source.Name()
}

// Ensure RateLimitedSource implements SectionSource
var _ SectionSource = (*RateLimitedSource)(nil)
