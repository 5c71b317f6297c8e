package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"flipclock/datasource"
)

// mockSection is a section source that simulates latency and counts calls
type mockSection struct {
	latency time.Duration
	calls   atomic.Int32
}

func (m *mockSection) Name() string {
	return "mock"
}

func (m *mockSection) FetchSection(ctx context.Context) (json.RawMessage, error) {
	n := m.calls.Add(1)
	fmt.Printf("%s - Processing request #%d\n", time.Now().Format("15:04:05.000"), n)

	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return json.RawMessage(`{"response":{}}`), nil
}

func main() {
	// Parse command-line flags
	requestsPerSecond := flag.Float64("rps", 2.0, "Rate limit in requests per second")
	burstSize := flag.Int("burst", 4, "Maximum burst size")
	totalRequests := flag.Int("requests", 12, "Total number of requests to make")
	concurrentRequests := flag.Int("concurrent", 4, "Number of concurrent requests")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mock := &mockSection{latency: 200 * time.Millisecond}
	limited := datasource.NewRateLimitedSource(mock, datasource.NewLimiter(*requestsPerSecond, *burstSize))

	fmt.Printf("Testing rate limiter with:\n")
	fmt.Printf("- Rate limit: %.2f requests/second\n", *requestsPerSecond)
	fmt.Printf("- Burst size: %d\n", *burstSize)
	fmt.Printf("- Total requests: %d\n", *totalRequests)
	fmt.Printf("- Concurrent workers: %d\n", *concurrentRequests)
	fmt.Println("Starting test...")

	startTime := time.Now()
	var wg sync.WaitGroup

	for i := 0; i < *concurrentRequests; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			requestsPerWorker := *totalRequests / *concurrentRequests
			if workerID < *totalRequests%*concurrentRequests {
				requestsPerWorker++
			}

			for j := 0; j < requestsPerWorker; j++ {
				before := time.Now()
				_, err := limited.FetchSection(ctx)
				elapsed := time.Since(before)

				if err != nil {
					log.Printf("Worker %d - Request %d failed: %v", workerID, j, err)
				} else {
					log.Printf("Worker %d - Request %d completed in %v", workerID, j, elapsed)
				}
			}
		}(i)
	}

	wg.Wait()

	totalTime := time.Since(startTime)
	actualRPS := float64(*totalRequests) / totalTime.Seconds()

	fmt.Println("\nTest completed!")
	fmt.Printf("Total time: %.2f seconds\n", totalTime.Seconds())
	fmt.Printf("Actual requests per second: %.2f\n", actualRPS)
	fmt.Printf("Total requests processed: %d\n", mock.calls.Load())

	expectedMinTime := float64(*totalRequests-*burstSize) / *requestsPerSecond
	if expectedMinTime < 0 {
		expectedMinTime = 0
	}
	fmt.Printf("Expected minimum time (theoretical): %.2f seconds\n", expectedMinTime)

	if actualRPS > *requestsPerSecond*1.5 && *totalRequests > *burstSize {
		fmt.Println("\nWARNING: Actual RPS significantly higher than configured rate limit!")
	} else {
		fmt.Println("\nRate limiting appears to be working correctly.")
	}
}
