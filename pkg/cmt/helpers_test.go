package cmt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fatalRecorder struct {
	lock sync.Mutex
	errs []*FatalError
}

func (r *fatalRecorder) record(err *FatalError) {
	r.lock.Lock()
	r.errs = append(r.errs, err)
	r.lock.Unlock()
}

func (r *fatalRecorder) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.errs)
}

func (r *fatalRecorder) last() *FatalError {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

type testEnv struct {
	sys   *System
	fatal *fatalRecorder
	clock *ManualClock
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	env := &testEnv{fatal: &fatalRecorder{}, clock: &ManualClock{}}
	conf := DefaultConfig()
	conf.Clock = env.clock
	conf.Panic = env.fatal.record
	for _, opt := range opts {
		opt(&conf)
	}
	sys, err := New(conf)
	require.NoError(t, err)
	require.NoError(t, sys.Init())
	env.sys = sys
	return env
}

func (e *testEnv) core(id CoreID) *Core {
	return e.sys.Core(id)
}

func (e *testEnv) ticks(n int) {
	for i := 0; i < n; i++ {
		e.sys.TickSource().Tick()
	}
}

func (e *testEnv) drain(id CoreID) []Message {
	var msgs []Message
	for {
		msg, ok := e.core(id).GetNonBlocking()
		if !ok {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func kindsOf(msgs []Message) []Kind {
	kinds := make([]Kind, 0, len(msgs))
	for _, msg := range msgs {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}
