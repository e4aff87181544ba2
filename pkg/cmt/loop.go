package cmt

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Run enters the dispatch loop of the core and returns only when ctx is
// done. It must be called once per core, after Init.
func (c *Core) Run(ctx context.Context, lc *LoopContext) error {
	if !c.sys.Initialized() {
		return c.sys.fatal("message loop", ErrNotInitialized)
	}
	if !c.running.CompareAndSwap(false, true) {
		return c.sys.fatal("message loop", fmt.Errorf("%v: %w", c.id, ErrLoopRunning))
	}
	defer c.running.Store(false)
	if lc == nil {
		lc = &LoopContext{}
	}
	ctx = withCore(ctx, c)

	glog.Infof("CMT - %v message loop running", c.id)
	if lc.Started != nil {
		lc.Started(ctx)
	}
	c.stats.start(c.sys.NowUS())

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			glog.Infof("CMT - %v message loop stopped", c.id)
			return err
		}
		c.iterate(ctx, lc, timer)
	}
}

// Step runs one iteration of the dispatch loop without parking and reports
// whether a message was dispatched.
func (c *Core) Step(ctx context.Context, lc *LoopContext) bool {
	return c.iterate(withCore(ctx, c), lc, nil)
}

func (c *Core) iterate(ctx context.Context, lc *LoopContext, timer *time.Timer) bool {
	now := c.sys.NowUS()
	c.stats.rollover(now, c.postErrors.Load(), c.sys.irq.Enabled())

	if msg, ok := c.queues.tryRemove(); ok {
		c.dispatch(ctx, lc, &msg, now)
		return true
	}

	roundDone := true
	if n := len(lc.Idle); n > 0 {
		if c.idleNext >= n {
			c.idleNext = 0
		}
		lc.Idle[c.idleNext](ctx)
		c.idleNext++
		roundDone = c.idleNext == n
	}
	if roundDone && timer != nil && c.sys.conf.IdleWait > 0 {
		c.queues.park(ctx, timer, c.sys.conf.IdleWait)
	}
	c.stats.idle(c.sys.NowUS() - now)
	return false
}

func (c *Core) dispatch(ctx context.Context, lc *LoopContext, msg *Message, start uint64) {
	if msg.Handler != nil {
		msg.Handler.HandleMessage(ctx, msg)
	} else if lc.Handlers.Dispatch(ctx, msg) == 0 {
		glog.V(4).Infof("CMT - %v no handler for %v", c.id, msg)
	}
	c.stats.dispatched(msg.Kind, c.sys.NowUS()-start)
}
