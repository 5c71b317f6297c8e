// Package clock renders the flip clock: four flip digits in 12-hour format, a sweeping
// second hand and the Korean date line.
package clock

import (
	"fmt"
	"time"

	"flipclock/display"
)

// Position identifies one of the four flip digits
type Position int

const (
	HoursTens Position = iota
	HoursOnes
	MinutesTens
	MinutesOnes
)

// Positions lists every digit position in display order
var Positions = [4]Position{HoursTens, HoursOnes, MinutesTens, MinutesOnes}

// ElementID returns the front-face element ID for the position
func (p Position) ElementID() string {
	return display.DigitIDs()[p]
}

func (p Position) String() string {
	return p.ElementID()
}

// Digits is the displayed HH:MM as four ASCII digits
type Digits [4]byte

// Hour12 converts a 0-23 hour to the 12-hour dial: 0 shows as 12, 13-23 as 1-11
func Hour12(hour24 int) int {
	h := hour24 % 12
	if h == 0 {
		return 12
	}
	return h
}

// DigitsAt derives the displayed digits from a wall-clock time
func DigitsAt(t time.Time) Digits {
	hm := fmt.Sprintf("%02d%02d", Hour12(t.Hour()), t.Minute())
	return Digits{hm[0], hm[1], hm[2], hm[3]}
}

// At returns the digit at a position as a one-character string
func (d Digits) At(p Position) string {
	return string(d[p])
}

func (d Digits) String() string {
	return fmt.Sprintf("%c%c:%c%c", d[0], d[1], d[2], d[3])
}

// Change is a single digit position whose value differs between two ticks
type Change struct {
	Position Position
	Old      string
	New      string
}

// Step derives the next digit state for now and reports which positions changed.
// The previous state is never modified.
func Step(prev Digits, now time.Time) (Digits, []Change) {
	next := DigitsAt(now)

	var changes []Change
	for _, p := range Positions {
		if prev[p] != next[p] {
			changes = append(changes, Change{Position: p, Old: prev.At(p), New: next.At(p)})
		}
	}
	return next, changes
}
