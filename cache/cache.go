package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"flipclock/models"
)

// Fetcher produces a new weather payload. prev is the payload currently held and
// may be nil; fresh reports whether anything in the result came from upstream.
type Fetcher interface {
	Fetch(ctx context.Context, prev models.WeatherPayload) (payload models.WeatherPayload, fresh bool, err error)
}

// PayloadCache serves the weather payload while it is younger than the cache
// duration. Concurrent misses share one upstream round.
type PayloadCache struct {
	source         Fetcher
	store          *FileStore
	cacheDuration  time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger

	group          singleflight.Group
	mutex          sync.RWMutex
	payload        models.WeatherPayload
	updated        time.Time
	cacheHitCount  int
	cacheMissCount int
}

// NewPayloadCache creates a cache in front of source. store may be nil to keep the
// cache in memory only.
func NewPayloadCache(source Fetcher, cacheDuration time.Duration, store *FileStore, logger *slog.Logger) *PayloadCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayloadCache{
		source:         source,
		store:          store,
		cacheDuration:  cacheDuration,
		refreshTimeout: 30 * time.Second,
		now:            time.Now,
		logger:         logger,
	}
}

// Load restores the last persisted payload. A missing file is not an error.
func (c *PayloadCache) Load() error {
	if c.store == nil {
		return nil
	}
	record, err := c.store.Load()
	if err != nil || record == nil {
		return err
	}

	c.mutex.Lock()
	c.payload = record.Weather
	c.updated = record.Timestamp
	c.mutex.Unlock()

	c.logger.Info("weather cache loaded", "updated", record.Timestamp, "sections", len(record.Weather))
	return nil
}

// Get returns the cached payload, refreshing it first when it has expired
func (c *PayloadCache) Get(ctx context.Context) (models.WeatherPayload, error) {
	c.mutex.Lock()
	if c.payload != nil && c.now().Sub(c.updated) < c.cacheDuration {
		c.cacheHitCount++
		payload, updated := c.payload.Clone(), c.updated
		c.mutex.Unlock()

		c.logger.Debug("weather cache hit", "updated", updated.Format(time.TimeOnly))
		return payload, nil
	}
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.Debug("weather cache miss, fetching fresh data")

	v, err, shared := c.group.Do("weather", func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("weather refresh shared with a concurrent request")
	}
	return v.(models.WeatherPayload).Clone(), nil
}

// refresh runs one upstream round shared by every waiting caller. It ignores the
// cancellation of the caller that started it.
func (c *PayloadCache) refresh(ctx context.Context) (models.WeatherPayload, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()

	c.mutex.RLock()
	prev := c.payload
	c.mutex.RUnlock()

	payload, fresh, err := c.source.Fetch(ctx, prev)
	if err != nil {
		return nil, err
	}
	if !fresh {
		// nothing new: the timestamp stays and the next request retries
		return payload, nil
	}

	now := c.now()
	c.mutex.Lock()
	c.payload = payload
	c.updated = now
	c.mutex.Unlock()

	if c.store != nil {
		if err := c.store.Save(models.CachedWeather{Weather: payload, Timestamp: now}); err != nil {
			c.logger.Error("failed to persist weather cache", "err", err)
		}
	}
	c.logger.Info("weather cache updated", "updated", now.Format(time.TimeOnly))
	return payload, nil
}

// Updated returns when the cached payload was last refreshed
func (c *PayloadCache) Updated() time.Time {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.updated
}

// CacheStats returns statistics about cache hits and misses
func (c *PayloadCache) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}
