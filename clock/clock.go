// Package clock provides the logical clock that drives the paging simulator.
package clock

import (
	"fmt"
	"log"
	"math"

	"github.com/sarchlab/akita/v3/sim"
)

// NanosPerSecond is the carry boundary of the nanosecond field.
const NanosPerSecond int64 = 1_000_000_000

// A SimClock is a (seconds, nanoseconds) pair. Nanoseconds always stays in
// [0, NanosPerSecond) after an Advance.
type SimClock struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// New returns a clock set to the given time, normalizing the nanosecond
// field.
func New(sec, ns int64) SimClock {
	c := SimClock{}
	c.Advance(sec, ns)
	return c
}

// FromNanos converts a nanosecond count into a clock value.
func FromNanos(ns int64) SimClock {
	return New(0, ns)
}

// Advance adds ns and then sec to the clock, carrying nanosecond overflow
// into seconds.
func (c *SimClock) Advance(sec, ns int64) {
	if sec < 0 || ns < 0 {
		log.Panicf("clock cannot go backwards: advance(%d, %d)", sec, ns)
	}

	c.Nanoseconds += ns
	c.Seconds += sec + c.Nanoseconds/NanosPerSecond
	c.Nanoseconds %= NanosPerSecond
}

// Add returns a copy of c advanced by ns nanoseconds.
func (c SimClock) Add(ns int64) SimClock {
	c.Advance(0, ns)
	return c
}

// Compare orders clocks seconds-major, nanoseconds-minor. It returns -1, 0
// or 1.
func (c SimClock) Compare(other SimClock) int {
	switch {
	case c.Seconds < other.Seconds:
		return -1
	case c.Seconds > other.Seconds:
		return 1
	case c.Nanoseconds < other.Nanoseconds:
		return -1
	case c.Nanoseconds > other.Nanoseconds:
		return 1
	}
	return 0
}

// Before reports whether c happened strictly before other.
func (c SimClock) Before(other SimClock) bool {
	return c.Compare(other) < 0
}

// Nanos returns the clock as a single nanosecond count. It saturates at
// math.MaxInt64.
func (c SimClock) Nanos() int64 {
	if c.Seconds > (math.MaxInt64-c.Nanoseconds)/NanosPerSecond {
		return math.MaxInt64
	}
	return c.Seconds*NanosPerSecond + c.Nanoseconds
}

// Sub returns c - other in nanoseconds.
func (c SimClock) Sub(other SimClock) int64 {
	return (c.Seconds-other.Seconds)*NanosPerSecond +
		c.Nanoseconds - other.Nanoseconds
}

// VTime converts the clock into the event engine's time unit.
func (c SimClock) VTime() sim.VTimeInSec {
	return sim.VTimeInSec(float64(c.Seconds) + float64(c.Nanoseconds)*1e-9)
}

func (c SimClock) String() string {
	return fmt.Sprintf("%d:%09d", c.Seconds, c.Nanoseconds)
}
