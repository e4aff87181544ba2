package cmt

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic time source since boot.
type Clock interface {
	NowUS() uint64
}

// SystemClock counts from its creation using the host monotonic clock.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock creates a SystemClock starting now.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// NowUS implements Clock.
func (c *SystemClock) NowUS() uint64 {
	return uint64(time.Since(c.boot) / time.Microsecond)
}

// ManualClock only moves when told to.
type ManualClock struct {
	us atomic.Uint64
}

// NowUS implements Clock.
func (c *ManualClock) NowUS() uint64 {
	return c.us.Load()
}

// Set sets the time in microseconds.
func (c *ManualClock) Set(us uint64) {
	c.us.Store(us)
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.us.Add(uint64(d / time.Microsecond))
}

func clockMS(c Clock) uint32 {
	return uint32(c.NowUS() / 1000)
}
