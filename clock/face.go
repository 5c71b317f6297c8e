package clock

import (
	"fmt"
	"strconv"
	"time"
)

var weekdays = [7]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// SecondHandAngle returns the second hand rotation in degrees for t.
// It sweeps continuously from 0 at the top of the minute towards 360.
func SecondHandAngle(t time.Time) float64 {
	seconds := float64(t.Second()) + float64(t.Nanosecond()/int(time.Millisecond))/1000
	return seconds / 60 * 360
}

// SecondHandTransform returns the CSS transform that rotates the hand around its pivot
func SecondHandTransform(angle float64) string {
	return fmt.Sprintf("translate(-50%%, -100%%) rotate(%sdeg)", strconv.FormatFloat(angle, 'f', -1, 64))
}

// DateString formats t as "2026년 10월 19일 월요일"
func DateString(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일 %s", t.Year(), int(t.Month()), t.Day(), weekdays[t.Weekday()])
}
