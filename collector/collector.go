package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"flipclock/datasource"
	"flipclock/models"
)

// DataCollector assembles the weather payload from its section sources
type DataCollector struct {
	sources      []datasource.SectionSource
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewDataCollector creates a new data collector with the provided sources
func NewDataCollector(sources []datasource.SectionSource, logger *slog.Logger) *DataCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataCollector{
		sources:      sources,
		fetchTimeout: 10 * time.Second, // Default timeout
		logger:       logger,
	}
}

// SetFetchTimeout changes the timeout for a single section request
func (dc *DataCollector) SetFetchTimeout(timeout time.Duration) {
	dc.fetchTimeout = timeout
}

// Fetch requests every section concurrently. A section that fails keeps its usable
// value from prev, or else becomes {"error": "..."}. fresh reports whether at least
// one section was fetched in this round. An error is returned only when ctx ended
// or no service key is configured.
func (dc *DataCollector) Fetch(ctx context.Context, prev models.WeatherPayload) (models.WeatherPayload, bool, error) {
	var (
		g       errgroup.Group
		mutex   sync.Mutex
		payload = make(models.WeatherPayload, len(dc.sources))
		failed  = make(map[string]error)
	)

	for _, source := range dc.sources {
		source := source
		g.Go(func() error {
			raw, err := dc.fetchOnce(ctx, source)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				failed[source.Name()] = err
				return nil
			}
			payload[source.Name()] = raw
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	fresh := len(payload) > 0
	keyMissing := len(failed) > 0
	for name, err := range failed {
		if !errors.Is(err, datasource.ErrMissingServiceKey) {
			keyMissing = false
		}
		if prev.Usable(name) {
			payload[name] = prev[name]
			dc.logger.Warn("section fetch failed, keeping cached section", "section", name, "err", err)
			continue
		}
		payload[name] = models.ErrorSection(err.Error())
		dc.logger.Error("section fetch failed", "section", name, "err", err)
	}
	if keyMissing && !fresh {
		return nil, false, datasource.ErrMissingServiceKey
	}

	dc.logger.Info("weather payload collected", "fresh", len(dc.sources)-len(failed), "failed", len(failed))
	return payload, fresh, nil
}

// fetchOnce performs a single fetch from a section source
func (dc *DataCollector) fetchOnce(ctx context.Context, source datasource.SectionSource) (json.RawMessage, error) {
	// Create a context with timeout for this specific request
	fetchCtx, cancel := context.WithTimeout(ctx, dc.fetchTimeout)
	defer cancel()

	raw, err := source.FetchSection(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", source.Name(), err)
	}
	if models.IsErrorSection(raw) {
		return nil, fmt.Errorf("error fetching %s: %w: unusable response: %s",
			source.Name(), datasource.ErrUpstream, datasource.Snippet(raw))
	}
	return raw, nil
}
