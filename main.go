package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"flipclock/api"
	"flipclock/cache"
	"flipclock/clock"
	"flipclock/collector"
	"flipclock/config"
	"flipclock/datasource"
	"flipclock/display"
	"flipclock/panel"
	"flipclock/providers/airkorea"
	"flipclock/providers/kma"
	"flipclock/web"
)

func main() {
	// Parse command line arguments
	configFile := flag.String("config", "", "Path to an optional YAML configuration file")
	port := flag.Int("port", 0, "Port to run the server on (overrides PORT)")
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable upstream API rate limiting")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, *enableRateLimiting, logger); err != nil {
		logger.Error("kiosk stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, rateLimit bool, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceKey := cfg.Upstream.ServiceKey.Unmask()
	if serviceKey == "" {
		logger.Warn("PUBLIC_DATA_SERVICE_KEY is not set; /api/weather will answer 400")
	}

	// Upstream sources share one HTTP client, one circuit breaker and one limiter
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	doer := datasource.NewBreakerDoer(httpClient, datasource.DefaultBreakerSettings("data.go.kr"))

	kmaClient := kma.NewClient(cfg.Upstream.KMABaseURL, serviceKey, cfg.Upstream.NX, cfg.Upstream.NY, doer, logger)
	sources := append(kmaClient.Sources(),
		airkorea.NewSource(cfg.Upstream.AirKoreaBaseURL, serviceKey, cfg.Upstream.StationName, doer, logger))

	if rateLimit {
		limiter := datasource.NewLimiter(cfg.Upstream.RateLimit, cfg.Upstream.Burst)
		sources = datasource.RateLimitAll(sources, limiter)
		logger.Info("applied rate limiting to upstream sources",
			"rps", cfg.Upstream.RateLimit, "burst", cfg.Upstream.Burst)
	}

	dc := collector.NewDataCollector(sources, logger)
	dc.SetFetchTimeout(cfg.Upstream.Timeout)

	var store *cache.FileStore
	if cfg.Cache.File != "" {
		store = cache.NewFileStore(cfg.Cache.File)
	}
	weatherCache := cache.NewPayloadCache(dc, cfg.Cache.Duration, store, logger)
	if err := weatherCache.Load(); err != nil {
		logger.Warn("failed to load weather cache", "err", err)
	}

	board := display.NewDefaultBoard()
	renderer := clock.NewRenderer(board, clock.Config{
		FrameInterval: cfg.Display.FrameInterval,
		Location:      loc,
		Logger:        logger.With("component", "clock"),
	})

	weatherPanel := panel.New(
		panel.NewHTTPFetcher(cfg.WeatherEndpoint(), nil),
		board,
		panel.Config{
			Interval: cfg.Display.Refresh,
			Location: loc,
			Logger:   logger.With("component", "panel"),
		},
	)

	server := api.NewServer(weatherCache, board, api.Options{
		Port:          cfg.Server.Port,
		ServiceKeySet: serviceKey != "",
		Static:        web.Static,
		Panel:         weatherPanel,
		Logger:        logger.With("component", "api"),
	})
	// bind before the panel's first refresh hits our own endpoint
	if err := server.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		renderer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		weatherPanel.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	wg.Wait()

	logger.Info("shutdown complete")
	return nil
}

// newLogger creates a JSON slog.Logger for the given level
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
