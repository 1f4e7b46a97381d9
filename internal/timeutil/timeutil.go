// Package timeutil provides the clock abstraction and time helpers used by
// the timer engine.
package timeutil

import "time"

// Clock is the engine's only source of elapsed time. Remaining time is
// always derived from an absolute end instant against Now, never from an
// accumulated tick count, so a suspended or throttled process cannot skew
// the countdown.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// RemainingSeconds returns the whole seconds between now and end, floored
// at zero.
func RemainingSeconds(now, end time.Time) int {
	r := int(end.Sub(now) / time.Second)
	if r < 0 {
		return 0
	}

	return r
}

// ToKey converts a time value to a database key for Bolt.
func ToKey(t time.Time) []byte {
	return []byte(t.Format(time.RFC3339Nano))
}
