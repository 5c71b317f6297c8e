package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipclock/models"
)

type fakeFetcher struct {
	calls   atomic.Int32
	fresh   bool
	err     error
	gate    chan struct{}
	mutex   sync.Mutex
	lastPrv models.WeatherPayload
}

func (f *fakeFetcher) Fetch(ctx context.Context, prev models.WeatherPayload) (models.WeatherPayload, bool, error) {
	n := f.calls.Add(1)
	f.mutex.Lock()
	f.lastPrv = prev
	f.mutex.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, false, f.err
	}
	return models.WeatherPayload{
		models.SectionNCST: json.RawMessage(`{"round":` + string(rune('0'+n)) + `}`),
	}, f.fresh, nil
}

type fakeClock struct {
	mutex sync.Mutex
	t     time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.t = c.t.Add(d)
	c.mutex.Unlock()
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(f Fetcher, store *FileStore) (*PayloadCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)}
	c := NewPayloadCache(f, time.Hour, store, quiet())
	c.now = clock.Now
	return c, clock
}

func TestPayloadCache_HitAndExpiry(t *testing.T) {
	f := &fakeFetcher{fresh: true}
	c, clock := newTestCache(f, nil)
	ctx := context.Background()

	p, err := c.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":1}`, string(p[models.SectionNCST]))

	clock.Advance(59 * time.Minute)
	p, err = c.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":1}`, string(p[models.SectionNCST]))
	assert.Equal(t, int32(1), f.calls.Load())

	clock.Advance(time.Minute)
	p, err = c.Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":2}`, string(p[models.SectionNCST]))

	f.mutex.Lock()
	assert.JSONEq(t, `{"round":1}`, string(f.lastPrv[models.SectionNCST]), "the expired payload is handed to the fetcher")
	f.mutex.Unlock()

	hits, misses := c.CacheStats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
	assert.Equal(t, clock.Now(), c.Updated())
}

func TestPayloadCache_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(&fakeFetcher{fresh: true}, nil)

	p, err := c.Get(context.Background())
	require.NoError(t, err)
	p[models.SectionNCST][2] = 'X'
	delete(p, models.SectionNCST)

	p, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":1}`, string(p[models.SectionNCST]))
}

func TestPayloadCache_NotFreshIsNotStored(t *testing.T) {
	f := &fakeFetcher{fresh: false}
	c, _ := newTestCache(f, nil)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.calls.Load())
	assert.True(t, c.Updated().IsZero())
}

func TestPayloadCache_Error(t *testing.T) {
	boom := errors.New("boom")
	c, _ := newTestCache(&fakeFetcher{err: boom}, nil)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPayloadCache_ConcurrentMissesShareOneRound(t *testing.T) {
	f := &fakeFetcher{fresh: true, gate: make(chan struct{})}
	c, _ := newTestCache(f, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.WeatherPayload, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Get(context.Background())
			assert.NoError(t, err)
			results[i] = p
		}()
	}

	require.Eventually(t, func() bool {
		_, misses := c.CacheStats()
		return misses == callers
	}, time.Second, time.Millisecond)
	// let the last caller reach the shared round
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, p := range results {
		assert.JSONEq(t, `{"round":1}`, string(p[models.SectionNCST]))
	}
}

func TestPayloadCache_CanceledCallerDoesNotAbortRound(t *testing.T) {
	f := &fakeFetcher{fresh: true}
	c, _ := newTestCache(f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := c.Get(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, p)
}

func TestPayloadCache_PersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_cache.json")
	store := NewFileStore(path)
	assert.Equal(t, path, store.Path())

	c, clock := newTestCache(&fakeFetcher{fresh: true}, store)
	_, err := c.Get(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Contains(t, record, "weather")
	assert.Contains(t, record, "timestamp")

	f := &fakeFetcher{fresh: true}
	restored, clock2 := newTestCache(f, store)
	clock2.t = clock.Now().Add(10 * time.Minute)
	require.NoError(t, restored.Load())
	assert.True(t, restored.Updated().Equal(clock.Now()))

	p, err := restored.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":1}`, string(p[models.SectionNCST]))
	assert.Equal(t, int32(0), f.calls.Load(), "a restored fresh cache is served without fetching")
}

func TestPayloadCache_LoadWithoutFile(t *testing.T) {
	c, _ := newTestCache(&fakeFetcher{}, NewFileStore(filepath.Join(t.TempDir(), "absent.json")))
	assert.NoError(t, c.Load())

	c, _ = newTestCache(&fakeFetcher{}, nil)
	assert.NoError(t, c.Load())
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"weather":{},"timestamp":"2026-10-19T14:00:00Z"}`), 0o600))
	record, err := NewFileStore(path).Load()
	assert.NoError(t, err)
	assert.Nil(t, record, "an empty payload is treated as no cache")
}

func TestFileStore_SaveToMissingDirectory(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope", "weather_cache.json"))
	err := store.Save(models.CachedWeather{Weather: models.WeatherPayload{"ncst": json.RawMessage(`{}`)}})
	assert.Error(t, err)
}
