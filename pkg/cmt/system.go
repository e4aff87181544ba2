package cmt

import (
	"fmt"
	"sync/atomic"

	"github.com/golang/glog"
)

// System owns the queues, the scheduled message table and the tick source
// shared by both cores.
type System struct {
	conf  Config
	clock Clock
	irq   Interrupts
	sched *scheduleTable
	cores [NumCores]*Core
	tick  *TickSource

	seq         atomic.Uint32
	initialized atomic.Bool
}

// New creates a System from conf.
func New(conf Config) (*System, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Clock == nil {
		conf.Clock = NewSystemClock()
	}
	if conf.Panic == nil {
		conf.Panic = HaltPanic
	}
	s := &System{
		conf:  conf,
		clock: conf.Clock,
		sched: newScheduleTable(conf.ScheduledSlots),
	}
	for n := range s.cores {
		s.cores[n] = newCore(s, CoreID(n))
	}
	s.tick = &TickSource{sys: s}
	return s, nil
}

// Init marks the system ready. Initializing twice is fatal.
func (s *System) Init() error {
	if !s.initialized.CompareAndSwap(false, true) {
		return s.fatal("init", ErrAlreadyInitialized)
	}
	glog.Infof("CMT - initialized: %d scheduled slots, tick %v", s.conf.ScheduledSlots, s.conf.TickPeriod)
	return nil
}

// Initialized reports whether Init was called.
func (s *System) Initialized() bool {
	return s.initialized.Load()
}

// Core returns a core by ID.
func (s *System) Core(id CoreID) *Core {
	if !id.Valid() {
		return nil
	}
	return s.cores[id]
}

// Config returns the config the system was created with.
func (s *System) Config() Config {
	return s.conf
}

// Clock returns the clock of the system.
func (s *System) Clock() Clock {
	return s.clock
}

// NowUS returns microseconds since boot.
func (s *System) NowUS() uint64 {
	return s.clock.NowUS()
}

// NowMS returns milliseconds since boot.
func (s *System) NowMS() uint32 {
	return clockMS(s.clock)
}

// Interrupts returns the interrupt mask.
func (s *System) Interrupts() *Interrupts {
	return &s.irq
}

// TickSource returns the tick source.
func (s *System) TickSource() *TickSource {
	return s.tick
}

// PostToBothNonBlocking tries once to post a copy of msg to each core, into
// the queue configured by QueueConfig.Both. Bit 0 of the result is set if
// core 0 accepted it, bit 1 if core 1 did. Owned payloads can't be copied
// and are fatal.
func (s *System) PostToBothNonBlocking(msg Message) uint16 {
	if IsOwned(msg.Data) {
		s.fatal("post to both", fmt.Errorf("%s: %w", msg.Kind, ErrOwnedPayload))
		return 0
	}
	if s.checkPayload("post to both", &msg) != nil {
		return 0
	}
	state := s.irq.Disable()
	defer s.irq.Restore(state)
	return s.postToBothMasked(msg)
}

func (s *System) postToBothMasked(msg Message) uint16 {
	var posted uint16
	for _, c := range s.cores {
		if c.postNonBlockingMasked(c.bothTier, msg) {
			posted |= 1 << c.id
		}
	}
	return posted
}

// ScheduleIn posts msg to core after ms milliseconds. Durations <= 0 fire
// on the next tick. Running out of slots is fatal.
func (s *System) ScheduleIn(core CoreID, ms int32, msg Message) error {
	if !core.Valid() {
		return fmt.Errorf("invalid core %d", core)
	}
	if err := s.checkPayload("schedule", &msg); err != nil {
		return err
	}
	state := s.irq.Disable()
	ok := s.sched.claim(core, ms, msg)
	s.irq.Restore(state)
	if !ok {
		return s.fatal("schedule", fmt.Errorf("%s in %dms: %w", msg.Kind, ms, ErrNoFreeSlot))
	}
	return nil
}

// Cancel removes every pending scheduled message of kind and returns the
// number removed. Messages already fired are not affected.
func (s *System) Cancel(kind Kind) int {
	state := s.irq.Disable()
	defer s.irq.Restore(state)
	return s.sched.cancel(kind)
}

// Exists reports whether a scheduled message of kind is pending.
func (s *System) Exists(kind Kind) bool {
	state := s.irq.Disable()
	defer s.irq.Restore(state)
	return s.sched.exists(kind)
}

// ScheduledCount returns the number of busy scheduled slots.
func (s *System) ScheduledCount() int {
	return s.sched.count()
}

// ScheduledKinds returns the kinds of up to max pending scheduled messages.
func (s *System) ScheduledKinds(max int) []Kind {
	state := s.irq.Disable()
	defer s.irq.Restore(state)
	return s.sched.kinds(max)
}

// LoopRunning reports whether the dispatch loop of core is running.
func (s *System) LoopRunning(core CoreID) bool {
	return core.Valid() && s.cores[core].Running()
}

// LoopsRunning reports whether the dispatch loops of both cores are running.
func (s *System) LoopsRunning() bool {
	for _, c := range s.cores {
		if !c.Running() {
			return false
		}
	}
	return true
}

// Status returns the last completed second of statistics of core.
func (s *System) Status(core CoreID) ProcStatus {
	if !core.Valid() {
		return ProcStatus{}
	}
	return s.cores[core].Status()
}

func (s *System) stamp(msg *Message) {
	msg.Seq = s.seq.Add(1)
	msg.PostedMS = clockMS(s.clock)
}

// deliverScheduled posts a fired scheduled message from the tick.
func (s *System) deliverScheduled(core CoreID, msg Message) {
	c := s.cores[core]
	if !c.postMasked(msg) {
		c.postErrors.Add(1)
		glog.Warningf("CMT - scheduled %s for %v dropped: %v", msg.Kind, core, ErrQueueFull)
	}
}

func (s *System) postHousekeeping() {
	s.postToBothMasked(NewMessageWithPriority(KindHousekeeping, PriorityLow))
}

func (s *System) checkPayload(op string, msg *Message) error {
	if !s.conf.ValidatePayloads {
		return nil
	}
	if err := msg.Validate(); err != nil {
		return s.fatal(op, err)
	}
	return nil
}

func (s *System) fatal(op string, err error) error {
	fe := &FatalError{Op: op, Err: err}
	s.conf.Panic(fe)
	return fe
}
