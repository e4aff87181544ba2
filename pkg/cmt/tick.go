package cmt

import (
	"context"
	"sync/atomic"
	"time"
)

// TickSource is the recurring tick interrupt. Each fire counts the
// scheduled messages down and every HousekeepingTicks fires posts a
// Housekeeping message to both cores.
type TickSource struct {
	sys   *System
	count atomic.Uint32
}

// Tick runs the interrupt body once.
func (t *TickSource) Tick() {
	sys := t.sys
	state := sys.irq.Disable()
	defer sys.irq.Restore(state)

	sys.sched.tick(sys.deliverScheduled)
	if n := t.count.Add(1); n&(sys.conf.HousekeepingTicks-1) == 0 {
		sys.postHousekeeping()
	}
}

// Count returns the number of ticks fired.
func (t *TickSource) Count() uint32 {
	return t.count.Load()
}

// Run fires the tick every TickPeriod until ctx is done.
func (t *TickSource) Run(ctx context.Context) error {
	t.sys.irq.EnableIRQ(IRQTick)
	defer t.sys.irq.DisableIRQ(IRQTick)
	ticker := time.NewTicker(t.sys.conf.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		}
	}
}
