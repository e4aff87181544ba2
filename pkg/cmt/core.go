package cmt

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/golang/glog"
)

// CoreID identifies one of the two cores.
type CoreID uint8

// Cores
const (
	Core0 CoreID = iota
	Core1

	NumCores = 2
)

// String implements fmt.Stringer.
func (id CoreID) String() string {
	return fmt.Sprintf("core%d", uint8(id))
}

// Other returns the other core.
func (id CoreID) Other() CoreID {
	return id ^ 1
}

// Valid reports whether id names a core.
func (id CoreID) Valid() bool {
	return id < NumCores
}

// Core is the messaging endpoint of one core: its queues, its dispatch loop
// and its statistics.
type Core struct {
	id       CoreID
	sys      *System
	queues   *queueSet
	bothTier tier

	running    atomic.Bool
	postErrors atomic.Uint32
	stats      statusAccumulator
	idleNext   int
}

func newCore(sys *System, id CoreID) *Core {
	conf := sys.conf.Queues[id]
	return &Core{
		id:       id,
		sys:      sys,
		queues:   newQueueSet(conf),
		bothTier: tierFor(conf.Both),
		stats:    statusAccumulator{fields: sys.conf.Stats},
	}
}

// ID returns the core ID.
func (c *Core) ID() CoreID {
	return c.id
}

// System returns the system the core belongs to.
func (c *Core) System() *System {
	return c.sys
}

// Post enqueues msg, retrying a few times when the destination queue is
// full. When all queues are empty the message goes to the High queue so the
// blocked consumer wakes up. Failing to enqueue is fatal unless
// NoQueueAddPanic is set, in which case the message is counted and dropped.
func (c *Core) Post(msg Message) error {
	if err := c.sys.checkPayload("post", &msg); err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		state := c.sys.irq.Disable()
		ok := c.postMasked(msg)
		c.sys.irq.Restore(state)
		if ok {
			return nil
		}
		if attempt >= c.sys.conf.PostRetries {
			break
		}
		runtime.Gosched()
	}
	c.postErrors.Add(1)
	err := fmt.Errorf("%v %s: %w", c.id, msg.Kind, ErrQueueFull)
	if c.sys.conf.NoQueueAddPanic {
		glog.Warningf("CMT - dropped message: %v", err)
		return err
	}
	return c.sys.fatal("queue add", err)
}

// PostNonBlocking tries once to enqueue msg into the Normal queue of the
// core and reports whether it succeeded.
func (c *Core) PostNonBlocking(msg Message) bool {
	if c.sys.checkPayload("post non-blocking", &msg) != nil {
		return false
	}
	state := c.sys.irq.Disable()
	ok := c.postNonBlockingMasked(tierNormal, msg)
	c.sys.irq.Restore(state)
	if !ok {
		glog.V(3).Infof("CMT - %v non-blocking post of %s failed", c.id, msg.Kind)
	}
	return ok
}

// postMasked is the body of a post; the caller holds the interrupt mask.
func (c *Core) postMasked(msg Message) bool {
	t := tierFor(msg.Priority)
	if c.queues.empty() {
		t = tierHigh
	}
	c.sys.stamp(&msg)
	return c.queues.tryAdd(t, msg)
}

func (c *Core) postNonBlockingMasked(t tier, msg Message) bool {
	c.sys.stamp(&msg)
	return c.queues.tryAdd(t, msg)
}

// Get returns the next message in High, Normal, Low order, blocking until
// one is posted or ctx is done.
func (c *Core) Get(ctx context.Context) (Message, error) {
	return c.queues.remove(ctx)
}

// GetNonBlocking returns the next message in High, Normal, Low order if
// any is waiting.
func (c *Core) GetNonBlocking() (Message, bool) {
	return c.queues.tryRemove()
}

// Sleep calls fn with userData on this core after ms milliseconds.
func (c *Core) Sleep(ms int32, fn SleepFunc, userData interface{}) error {
	msg := NewMessageWithHandler(KindSleep, PriorityNormal, handleSleep).
		WithData(SleepData{Func: fn, UserData: userData})
	return c.sys.ScheduleIn(c.id, ms, msg)
}

// ScheduleIn posts msg to this core after ms milliseconds.
func (c *Core) ScheduleIn(ms int32, msg Message) error {
	return c.sys.ScheduleIn(c.id, ms, msg)
}

// Running reports whether the dispatch loop of the core is running.
func (c *Core) Running() bool {
	return c.running.Load()
}

// Status returns the statistics of the last completed second.
func (c *Core) Status() ProcStatus {
	return c.stats.snapshot()
}

// QueueLevels returns the number of messages waiting in each queue.
func (c *Core) QueueLevels() QueueLevels {
	return c.queues.levels()
}

// PostErrors returns the number of blocking posts that failed.
func (c *Core) PostErrors() uint32 {
	return c.postErrors.Load()
}
