package clock

import (
	"math/rand"
	"sync"
	"time"

	"flipclock/display"
)

const (
	// DefaultFlipDuration is how long the card shows the flip state before the
	// front face is committed
	DefaultFlipDuration = 1200 * time.Millisecond

	// DefaultFlipJitter bounds the random per-digit start delay that staggers
	// simultaneous flips
	DefaultFlipJitter = 150 * time.Millisecond

	flipClass = "flip"
)

// Task is a scheduled callback that can be stopped before it fires
type Task interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// TimerScheduler returns a Scheduler backed by time.AfterFunc
func TimerScheduler() Scheduler {
	return timerScheduler{}
}

// flipTask holds the two timers of one in-flight flip
type flipTask struct {
	generation uint64
	start      Task
	commit     Task
}

// Flipper animates digit changes. Each position has at most one live flip; a newer
// flip for the same position stops the older one, so the latest digit always wins.
type Flipper struct {
	surface   display.Surface
	scheduler Scheduler
	duration  time.Duration
	jitter    func() time.Duration

	mutex      sync.Mutex
	generation uint64
	tasks      map[Position]*flipTask
}

// FlipperOption configures a Flipper
type FlipperOption func(*Flipper)

// WithScheduler replaces the timer source. Used by tests to drive time manually.
func WithScheduler(s Scheduler) FlipperOption {
	return func(f *Flipper) {
		f.scheduler = s
	}
}

// WithFlipDuration overrides the time the flip state is held
func WithFlipDuration(d time.Duration) FlipperOption {
	return func(f *Flipper) {
		f.duration = d
	}
}

// WithJitter overrides the random start delay source
func WithJitter(fn func() time.Duration) FlipperOption {
	return func(f *Flipper) {
		f.jitter = fn
	}
}

// UniformJitter returns a jitter source drawing uniformly from [0, max)
func UniformJitter(max time.Duration) func() time.Duration {
	return func() time.Duration {
		if max <= 0 {
			return 0
		}
		return time.Duration(rand.Int63n(int64(max)))
	}
}

// NewFlipper creates a Flipper writing to surface
func NewFlipper(surface display.Surface, opts ...FlipperOption) *Flipper {
	f := &Flipper{
		surface:   surface,
		scheduler: TimerScheduler(),
		duration:  DefaultFlipDuration,
		jitter:    UniformJitter(DefaultFlipJitter),
		tasks:     make(map[Position]*flipTask),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flip animates a position from oldDigit to newDigit. It returns false, without
// touching the surface or scheduling anything, when the digit is unchanged.
func (f *Flipper) Flip(p Position, oldDigit, newDigit string) bool {
	if oldDigit == newDigit {
		return false
	}

	front := p.ElementID()
	back := display.BackFace(front)
	card := display.FlipCard(front)

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if prev, ok := f.tasks[p]; ok {
		prev.start.Stop()
		prev.commit.Stop()
	}

	f.generation++
	task := &flipTask{generation: f.generation}
	f.tasks[p] = task

	f.surface.SetText(back, newDigit)

	delay := f.jitter()
	task.start = f.scheduler.AfterFunc(delay, func() {
		if !f.current(p, task.generation) {
			return
		}
		f.surface.AddClass(card, flipClass)
	})
	task.commit = f.scheduler.AfterFunc(f.duration+delay, func() {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		if cur, ok := f.tasks[p]; !ok || cur.generation != task.generation {
			return
		}
		delete(f.tasks, p)
		f.surface.SetText(front, newDigit)
		f.surface.RemoveClass(card, flipClass)
	})
	return true
}

// Pending reports whether a flip for the position has not yet committed
func (f *Flipper) Pending(p Position) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	_, ok := f.tasks[p]
	return ok
}

// Stop cancels every in-flight flip without committing it
func (f *Flipper) Stop() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for p, task := range f.tasks {
		task.start.Stop()
		task.commit.Stop()
		delete(f.tasks, p)
	}
}

func (f *Flipper) current(p Position, generation uint64) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	cur, ok := f.tasks[p]
	return ok && cur.generation == generation
}
