package clock

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipclock/display"
)

// manualScheduler fires callbacks only when Advance moves its clock past their due time
type manualScheduler struct {
	mutex   sync.Mutex
	now     time.Duration
	pending []*manualTask
}

type manualTask struct {
	s       *manualScheduler
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.s.mutex.Lock()
	defer t.s.mutex.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	t := &manualTask{s: s, due: s.now + d, fn: f}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock forward and runs due callbacks in due order
func (s *manualScheduler) Advance(d time.Duration) {
	s.mutex.Lock()
	s.now += d
	var due []*manualTask
	var rest []*manualTask
	for _, t := range s.pending {
		switch {
		case t.stopped:
		case t.due <= s.now:
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.pending = rest
	s.mutex.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		t.fn()
	}
}

func (s *manualScheduler) Scheduled() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func fixedJitter(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func newTestFlipper(board *display.Board, jitter time.Duration) (*Flipper, *manualScheduler) {
	sched := &manualScheduler{}
	return NewFlipper(board, WithScheduler(sched), WithJitter(fixedJitter(jitter))), sched
}

func TestFlip_ChangedDigit(t *testing.T) {
	board := display.NewDefaultBoard()
	board.SetText(display.MinutesOnes, "0")
	flipper, sched := newTestFlipper(board, 100*time.Millisecond)

	require.True(t, flipper.Flip(MinutesOnes, "0", "1"))

	back, _ := board.Text(display.BackFace(display.MinutesOnes))
	assert.Equal(t, "1", back, "back face is written immediately")
	front, _ := board.Text(display.MinutesOnes)
	assert.Equal(t, "0", front)
	assert.False(t, board.HasClass(display.FlipCard(display.MinutesOnes), "flip"))

	sched.Advance(100 * time.Millisecond)
	assert.True(t, board.HasClass(display.FlipCard(display.MinutesOnes), "flip"))

	sched.Advance(1199 * time.Millisecond)
	front, _ = board.Text(display.MinutesOnes)
	assert.Equal(t, "0", front, "commit waits for duration plus jitter")

	sched.Advance(time.Millisecond)
	front, _ = board.Text(display.MinutesOnes)
	assert.Equal(t, "1", front)
	assert.False(t, board.HasClass(display.FlipCard(display.MinutesOnes), "flip"))
	assert.False(t, flipper.Pending(MinutesOnes))
}

func TestFlip_UnchangedDigitSchedulesNothing(t *testing.T) {
	board := display.NewDefaultBoard()
	board.SetText(display.HoursOnes, "5")
	_, before := board.Snapshot()
	flipper, sched := newTestFlipper(board, 0)

	assert.False(t, flipper.Flip(HoursOnes, "5", "5"))
	assert.Equal(t, 0, sched.Scheduled())

	_, after := board.Snapshot()
	assert.Equal(t, before, after, "surface must not change")
}

func TestFlip_LatestWriteWins(t *testing.T) {
	board := display.NewDefaultBoard()
	flipper, sched := newTestFlipper(board, 50*time.Millisecond)

	flipper.Flip(MinutesOnes, "0", "1")
	sched.Advance(500 * time.Millisecond)
	flipper.Flip(MinutesOnes, "1", "2")

	back, _ := board.Text(display.BackFace(display.MinutesOnes))
	assert.Equal(t, "2", back)

	// the first flip would have committed at 1250ms
	sched.Advance(800 * time.Millisecond)
	front, _ := board.Text(display.MinutesOnes)
	assert.NotEqual(t, "1", front, "superseded flip must not commit")

	sched.Advance(time.Second)
	front, _ = board.Text(display.MinutesOnes)
	assert.Equal(t, "2", front)
	assert.False(t, board.HasClass(display.FlipCard(display.MinutesOnes), "flip"))
	assert.Equal(t, 0, sched.Scheduled())
}

func TestFlip_PositionsAreIndependent(t *testing.T) {
	board := display.NewDefaultBoard()
	flipper, sched := newTestFlipper(board, 0)

	flipper.Flip(HoursTens, "0", "1")
	flipper.Flip(MinutesOnes, "9", "0")
	assert.Equal(t, 4, sched.Scheduled())

	sched.Advance(DefaultFlipDuration)
	h, _ := board.Text(display.HoursTens)
	m, _ := board.Text(display.MinutesOnes)
	assert.Equal(t, "1", h)
	assert.Equal(t, "0", m)
}

func TestFlip_MissingElementsAreSkipped(t *testing.T) {
	board := display.NewBoard(display.MinutesOnes)
	flipper, sched := newTestFlipper(board, 0)

	assert.NotPanics(t, func() {
		flipper.Flip(MinutesOnes, "3", "4")
		sched.Advance(2 * time.Second)
	})
	front, _ := board.Text(display.MinutesOnes)
	assert.Equal(t, "4", front)
}

func TestFlipper_Stop(t *testing.T) {
	board := display.NewDefaultBoard()
	flipper, sched := newTestFlipper(board, 0)

	flipper.Flip(HoursOnes, "1", "2")
	flipper.Stop()
	sched.Advance(2 * time.Second)

	front, _ := board.Text(display.HoursOnes)
	assert.Equal(t, "", front)
	assert.False(t, flipper.Pending(HoursOnes))
}

func TestUniformJitter(t *testing.T) {
	jitter := UniformJitter(DefaultFlipJitter)
	for i := 0; i < 1000; i++ {
		d := jitter()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, DefaultFlipJitter)
	}
	assert.Equal(t, time.Duration(0), UniformJitter(0)())
}
