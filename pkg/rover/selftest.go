package rover

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// SelfTest measures the error of the scheduled message delay by
// re-scheduling itself every period.
type SelfTest struct {
	kind   cmt.Kind
	period time.Duration
	debug  bool

	runs        atomic.Uint32
	lastErrorUS atomic.Int64
}

func newSelfTest(kind cmt.Kind, conf Config) *SelfTest {
	return &SelfTest{kind: kind, period: conf.TestPeriod, debug: conf.Debug}
}

// Runs returns how many times the test ran.
func (t *SelfTest) Runs() uint32 {
	return t.runs.Load()
}

// LastErrorUS returns the delay error of the last run.
func (t *SelfTest) LastErrorUS() int64 {
	return t.lastErrorUS.Load()
}

func (t *SelfTest) start(core *cmt.Core) {
	if t.period <= 0 {
		return
	}
	if !core.PostNonBlocking(cmt.NewMessageWithPriority(t.kind, cmt.PriorityLow)) {
		glog.Warningf("%s not started: queue full", t.kind)
	}
}

func (t *SelfTest) handle(ctx context.Context, msg *cmt.Message) {
	core := cmt.CoreFrom(ctx)
	now := core.System().NowUS()
	if last, ok := cmt.PayloadAs[cmt.TimestampUS](msg); ok && last != 0 {
		errUS := int64(now-uint64(last)) - int64(t.period/time.Microsecond)
		t.lastErrorUS.Store(errUS)
		if t.debug {
			glog.Infof("%05d - %s scheduled msg delay error us/ms: %5.2f",
				t.runs.Load()+1, t.kind, float64(errUS)/float64(t.period/time.Millisecond))
		}
	}
	if t.period > 0 {
		next := cmt.NewMessage(t.kind).WithData(cmt.TimestampUS(now))
		if err := core.ScheduleIn(ms(t.period), next); err != nil {
			glog.Errorf("%s reschedule failed: %v", t.kind, err)
		}
	}
	t.runs.Add(1)
}
