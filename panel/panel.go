package panel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flipclock/display"
)

// DefaultRefreshInterval keeps the upstream APIs well inside their daily quota
const DefaultRefreshInterval = 30 * time.Minute

// Panel keeps the weather fields of the surface up to date. A failed refresh leaves
// the previous values on screen.
type Panel struct {
	fetcher  Fetcher
	surface  display.Surface
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mutex       sync.RWMutex
	lastUpdated time.Time
	lastErr     error
}

// Config holds the Panel settings
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// New creates a panel that writes payloads from fetcher to surface
func New(fetcher Fetcher, surface display.Surface, cfg Config) *Panel {
	p := &Panel{
		fetcher:  fetcher,
		surface:  surface,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	if p.interval <= 0 {
		p.interval = DefaultRefreshInterval
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	if p.now == nil {
		p.now = time.Now
	}
	if cfg.Location != nil {
		now, loc := p.now, cfg.Location
		p.now = func() time.Time { return now().In(loc) }
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Refresh fetches one payload and applies it. The returned error is informational;
// the surface is never cleared on failure.
func (p *Panel) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.logger.Debug("fetching weather data")
	payload, err := p.fetcher.FetchPayload(ctx)
	if err != nil {
		p.logger.Error("failed to fetch weather", "err", err)
		p.record(err)
		return err
	}

	now := p.now()
	for name, s := range payload.Sections() {
		if s.State == SectionMalformed {
			p.logger.Warn("weather section unusable", "section", name, "err", s.Err)
		}
	}

	snap := Project(payload, now)
	for step, perr := range snap.Problems {
		p.logger.Error("weather projection step failed", "step", step, "err", perr)
	}
	Apply(p.surface, snap)

	p.logger.Info("weather panel updated",
		"date", now.Format("20060102"),
		"hour", now.Format("15")+"00",
		"version", payload.Version,
	)
	p.record(nil)
	return nil
}

// Run refreshes immediately and then on every interval until ctx is cancelled
func (p *Panel) Run(ctx context.Context) {
	p.logger.Info("weather panel starting", "interval", p.interval)

	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Refresh(ctx)
		case <-ctx.Done():
			p.logger.Info("weather panel stopped")
			return
		}
	}
}

// Status returns the time of the last successful refresh and the last error
func (p *Panel) Status() (time.Time, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.lastUpdated, p.lastErr
}

func (p *Panel) record(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.lastErr = err
	if err == nil {
		p.lastUpdated = p.now()
	}
}
