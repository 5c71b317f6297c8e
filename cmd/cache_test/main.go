package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"flipclock/cache"
	"flipclock/collector"
	"flipclock/datasource"
	"flipclock/models"
)

// mockSection simulates an upstream section with latency and counts calls
type mockSection struct {
	name    string
	latency time.Duration
	calls   atomic.Int32
}

func (m *mockSection) Name() string {
	return m.name
}

func (m *mockSection) FetchSection(ctx context.Context) (json.RawMessage, error) {
	n := m.calls.Add(1)
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return json.RawMessage(fmt.Sprintf(`{"response":{"body":{"items":{"item":[]}}},"call":%d}`, n)), nil
}

func main() {
	cacheDuration := flag.Duration("ttl", 5*time.Second, "Cache duration")
	concurrent := flag.Int("concurrent", 5, "Concurrent requests per round")
	flag.Parse()

	fmt.Println("=== Running Cache Test ===")
	fmt.Println("This demonstrates cache hits, shared refreshes and persistence")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var mocks []*mockSection
	var sources []datasource.SectionSource
	for _, name := range models.SectionNames {
		m := &mockSection{name: name, latency: 300 * time.Millisecond}
		mocks = append(mocks, m)
		sources = append(sources, m)
	}

	dir, err := os.MkdirTemp("", "flipclock-cache-test")
	if err != nil {
		fmt.Printf("Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)
	store := cache.NewFileStore(filepath.Join(dir, "weather_cache.json"))

	weatherCache := cache.NewPayloadCache(collector.NewDataCollector(sources, logger), *cacheDuration, store, logger)
	ctx := context.Background()

	fmt.Println("\n*** First round - concurrent misses share one upstream round ***")
	makeRequests(ctx, weatherCache, *concurrent)

	fmt.Println("\n*** Second round - should use cached data ***")
	makeRequests(ctx, weatherCache, *concurrent)

	fmt.Printf("\nWaiting for cache to expire (%s)...\n", *cacheDuration)
	time.Sleep(*cacheDuration + 500*time.Millisecond)

	fmt.Println("\n*** After expiry - one more upstream round ***")
	makeRequests(ctx, weatherCache, *concurrent)

	hits, misses := weatherCache.CacheStats()
	fmt.Printf("\nCache stats: %d hits, %d misses\n", hits, misses)
	for _, m := range mocks {
		fmt.Printf("Upstream calls for %s: %d\n", m.name, m.calls.Load())
	}

	restored := cache.NewPayloadCache(collector.NewDataCollector(sources, logger), *cacheDuration, store, logger)
	if err := restored.Load(); err != nil {
		fmt.Printf("Error restoring cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Restored cache from %s, updated %s\n", store.Path(), restored.Updated().Format(time.TimeOnly))

	fmt.Println("\n=== Cache Test Complete ===")
}

func makeRequests(ctx context.Context, c *cache.PayloadCache, n int) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			start := time.Now()
			payload, err := c.Get(ctx)
			if err != nil {
				fmt.Printf("Request %d: error: %v\n", id, err)
				return
			}
			fmt.Printf("Request %d: %d sections in %v\n", id, len(payload), time.Since(start).Round(time.Millisecond))
		}(i)
	}
	wg.Wait()
}
