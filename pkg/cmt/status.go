package cmt

import (
	"fmt"
	"sync"
)

const usPerSecond = 1000000

// ProcStatus holds the statistics of one core over one second.
type ProcStatus struct {
	// Retrieved is the number of messages dispatched.
	Retrieved uint32
	// Idle is the number of loop iterations without a message.
	Idle     uint32
	ActiveUS uint64
	// IdleUS is only tracked with StatsIdleTime.
	IdleUS uint64
	// LongestUS and LongestKind are only tracked with StatsLongestHandler.
	LongestUS   uint64
	LongestKind Kind
	// PostErrors is the cumulative count of failed blocking posts.
	PostErrors uint32
	// Interrupts is the bitmap of enabled interrupt lines.
	Interrupts uint32
	// TimestampUS is when the second ended.
	TimestampUS uint64
}

// String implements fmt.Stringer.
func (s ProcStatus) String() string {
	return fmt.Sprintf("retrieved=%d idle=%d active=%dus idle=%dus longest=%dus(%s) errors=%d irq=%#x",
		s.Retrieved, s.Idle, s.ActiveUS, s.IdleUS, s.LongestUS, s.LongestKind, s.PostErrors, s.Interrupts)
}

// statusAccumulator counts for the current second and keeps a copy of the
// last completed one. The live counters belong to the dispatch loop.
type statusAccumulator struct {
	fields StatsFields
	since  uint64
	live   ProcStatus

	lock sync.Mutex
	last ProcStatus
}

func (a *statusAccumulator) start(nowUS uint64) {
	a.since = nowUS
	a.live = ProcStatus{}
}

// rollover publishes the live counters once a second has elapsed.
func (a *statusAccumulator) rollover(nowUS uint64, postErrors, irqs uint32) bool {
	if nowUS-a.since < usPerSecond {
		return false
	}
	a.live.PostErrors = postErrors
	a.live.Interrupts = irqs
	a.live.TimestampUS = nowUS
	a.lock.Lock()
	a.last = a.live
	a.lock.Unlock()
	a.live = ProcStatus{}
	a.since = nowUS
	return true
}

func (a *statusAccumulator) dispatched(kind Kind, us uint64) {
	a.live.Retrieved++
	a.live.ActiveUS += us
	if a.fields&StatsLongestHandler != 0 && us > a.live.LongestUS {
		a.live.LongestUS = us
		a.live.LongestKind = kind
	}
}

func (a *statusAccumulator) idle(us uint64) {
	a.live.Idle++
	if a.fields&StatsIdleTime != 0 {
		a.live.IdleUS += us
	}
}

func (a *statusAccumulator) snapshot() ProcStatus {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.last
}
