package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flipclock/display"
)

const (
	// DefaultFrameInterval is the redraw period of the second hand
	DefaultFrameInterval = 100 * time.Millisecond

	// tickInterval is the digit and date refresh period
	tickInterval = time.Second
)

// Renderer keeps the flip digits, second hand and date of the surface in step with
// the wall clock
type Renderer struct {
	surface       display.Surface
	flipper       *Flipper
	now           func() time.Time
	frameInterval time.Duration
	logger        *slog.Logger

	mutex    sync.Mutex
	previous Digits
}

// Config holds the Renderer settings
type Config struct {
	FrameInterval time.Duration
	Location      *time.Location
	Flipper       []FlipperOption
	Now           func() time.Time
	Logger        *slog.Logger
}

// NewRenderer creates a renderer drawing to surface
func NewRenderer(surface display.Surface, cfg Config) *Renderer {
	r := &Renderer{
		surface:       surface,
		flipper:       NewFlipper(surface, cfg.Flipper...),
		now:           cfg.Now,
		frameInterval: cfg.FrameInterval,
		logger:        cfg.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if cfg.Location != nil {
		now, loc := r.now, cfg.Location
		r.now = func() time.Time { return now().In(loc) }
	}
	if r.frameInterval <= 0 {
		r.frameInterval = DefaultFrameInterval
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Initialize paints the current time on both faces of every digit without animating
// and records it as the baseline for later ticks
func (r *Renderer) Initialize() {
	now := r.now()
	digits := DigitsAt(now)

	r.mutex.Lock()
	r.previous = digits
	r.mutex.Unlock()

	for _, p := range Positions {
		front := p.ElementID()
		r.surface.SetText(front, digits.At(p))
		r.surface.SetText(display.BackFace(front), digits.At(p))
	}
	r.DrawSecondHand(now)
	r.drawDate(now)

	r.logger.Info("clock initialized", "time", digits.String())
}

// Update advances the digits to the current time, flipping only the positions that
// changed, and refreshes the date line
func (r *Renderer) Update() {
	now := r.now()

	r.mutex.Lock()
	next, changes := Step(r.previous, now)
	r.previous = next
	r.mutex.Unlock()

	for _, c := range changes {
		r.flipper.Flip(c.Position, c.Old, c.New)
	}
	r.drawDate(now)
}

// Digits returns the last rendered digit state
func (r *Renderer) Digits() Digits {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.previous
}

// DrawSecondHand rotates the second hand to the position for t
func (r *Renderer) DrawSecondHand(t time.Time) {
	r.surface.SetStyle(display.SecondHand, "transform", SecondHandTransform(SecondHandAngle(t)))
}

func (r *Renderer) drawDate(now time.Time) {
	date := DateString(now)
	if current, ok := r.surface.Text(display.Date); ok && current != date {
		r.surface.SetText(display.Date, date)
	}
}

// Run initializes the clock and then drives the frame and tick loops until ctx is
// cancelled. In-flight flips are dropped on return.
func (r *Renderer) Run(ctx context.Context) {
	r.Initialize()

	frames := time.NewTicker(r.frameInterval)
	defer frames.Stop()
	ticks := time.NewTicker(tickInterval)
	defer ticks.Stop()
	defer r.flipper.Stop()

	for {
		select {
		case <-frames.C:
			r.DrawSecondHand(r.now())
		case <-ticks.C:
			r.Update()
		case <-ctx.Done():
			r.logger.Info("clock stopped")
			return
		}
	}
}
