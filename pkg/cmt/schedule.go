package cmt

import (
	"sync"
	"sync/atomic"
)

const slotFree int32 = -1

// slot is one entry of the scheduled message table. remaining is -1 when
// the slot is free, >0 while counting down and 0 while the tick is
// delivering it. Only the tick moves a slot from busy back to free, except
// for cancel which only claims a slot that is still counting.
type slot struct {
	remaining atomic.Int32
	core      CoreID
	msg       Message
}

type scheduleTable struct {
	lock  sync.Mutex
	slots []slot
}

func newScheduleTable(size int) *scheduleTable {
	t := &scheduleTable{slots: make([]slot, size)}
	t.reset()
	return t
}

func (t *scheduleTable) reset() {
	for i := range t.slots {
		t.slots[i].remaining.Store(slotFree)
	}
}

// claim stores msg in a free slot. The caller holds the interrupt mask.
func (t *scheduleTable) claim(core CoreID, ms int32, msg Message) bool {
	if ms <= 0 {
		ms = 1
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	for i := range t.slots {
		s := &t.slots[i]
		if s.remaining.Load() != slotFree {
			continue
		}
		s.core, s.msg = core, msg
		s.remaining.Store(ms)
		return true
	}
	return false
}

// tick counts every busy slot down by one and delivers the ones reaching
// zero. It runs in the tick context with the interrupt mask held.
func (t *scheduleTable) tick(deliver func(CoreID, Message)) {
	for i := range t.slots {
		s := &t.slots[i]
		for {
			r := s.remaining.Load()
			if r <= 0 {
				break
			}
			if !s.remaining.CompareAndSwap(r, r-1) {
				continue
			}
			if r == 1 {
				core, msg := s.core, s.msg
				s.msg = Message{}
				deliver(core, msg)
				s.remaining.Store(slotFree)
			}
			break
		}
	}
}

// cancel frees every counting slot holding kind and returns the number of
// slots freed.
func (t *scheduleTable) cancel(kind Kind) int {
	t.lock.Lock()
	defer t.lock.Unlock()
	var n int
	for i := range t.slots {
		s := &t.slots[i]
		r := s.remaining.Load()
		if r <= 0 || s.msg.Kind != kind {
			continue
		}
		if s.remaining.CompareAndSwap(r, slotFree) {
			s.msg = Message{}
			n++
		}
	}
	return n
}

func (t *scheduleTable) exists(kind Kind) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i := range t.slots {
		s := &t.slots[i]
		if s.remaining.Load() > 0 && s.msg.Kind == kind {
			return true
		}
	}
	return false
}

func (t *scheduleTable) count() int {
	var n int
	for i := range t.slots {
		if t.slots[i].remaining.Load() != slotFree {
			n++
		}
	}
	return n
}

// kinds returns the kinds of up to max busy slots.
func (t *scheduleTable) kinds(max int) []Kind {
	t.lock.Lock()
	defer t.lock.Unlock()
	var out []Kind
	for i := range t.slots {
		if len(out) >= max {
			break
		}
		s := &t.slots[i]
		if s.remaining.Load() > 0 {
			out = append(out, s.msg.Kind)
		}
	}
	return out
}
