package rover

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// DCS is the drive control system running on core 1.
type DCS struct {
	sys *cmt.System

	hwosStarted  atomic.Bool
	inputPressed atomic.Bool
	presses      atomic.Uint32
	longPresses  atomic.Uint32
	housekeeping atomic.Uint32
	display      atomic.Value
	bankBits     atomic.Uint32
	test         *SelfTest
}

// NewDCS creates the core 1 application.
func NewDCS(sys *cmt.System, conf Config) *DCS {
	return &DCS{sys: sys, test: newSelfTest(cmt.KindDCSTest, conf)}
}

// LoopContext returns the dispatch loop setup of core 1.
func (d *DCS) LoopContext() *cmt.LoopContext {
	return &cmt.LoopContext{
		Handlers: cmt.HandlerTable{
			cmt.Entry(cmt.KindHousekeeping, d.handleHousekeeping),
			cmt.Entry(cmt.KindDCSTest, d.test.handle),
			cmt.Entry(cmt.KindInputSwPress, d.handleInputSwPress),
			cmt.Entry(cmt.KindInputSwRelease, d.handleInputSwRelease),
			cmt.Entry(cmt.KindSwitchLongPress, d.handleSwitchLongPress),
			cmt.Entry(cmt.KindDisplayMessage, d.handleDisplayMessage),
			cmt.Entry(cmt.KindHWOSStarted, d.handleHWOSStarted),
			cmt.Entry(cmt.KindSensBankChange, d.handleSensBankChange),
			cmt.SleepHandlerEntry,
		},
	}
}

// HWOSStarted reports whether core 0 has announced it is started.
func (d *DCS) HWOSStarted() bool {
	return d.hwosStarted.Load()
}

// InputPressed reports whether the user switch is held.
func (d *DCS) InputPressed() bool {
	return d.inputPressed.Load()
}

// Presses returns the number of user switch presses.
func (d *DCS) Presses() uint32 {
	return d.presses.Load()
}

// LongPresses returns the number of long press reports, repeats included.
func (d *DCS) LongPresses() uint32 {
	return d.longPresses.Load()
}

// Housekeeping returns the number of Housekeeping messages handled.
func (d *DCS) Housekeeping() uint32 {
	return d.housekeeping.Load()
}

// Display returns the last displayed message.
func (d *DCS) Display() string {
	s, _ := d.display.Load().(string)
	return s
}

// SwitchBits returns the last reported switch bank bits.
func (d *DCS) SwitchBits() uint8 {
	return uint8(d.bankBits.Load())
}

// SelfTest returns the scheduled delay self test of core 1.
func (d *DCS) SelfTest() *SelfTest {
	return d.test
}

func (d *DCS) handleHousekeeping(ctx context.Context, msg *cmt.Message) {
	d.housekeeping.Add(1)
}

// handleHWOSStarted answers the start-up handshake.
func (d *DCS) handleHWOSStarted(ctx context.Context, msg *cmt.Message) {
	glog.Info("DCS: HWOS started")
	d.hwosStarted.Store(true)
	if err := d.sys.Core(cmt.Core0).Post(cmt.NewMessage(cmt.KindDCSStarted)); err != nil {
		glog.Errorf("DCS: started not posted: %v", err)
	}
	d.test.start(cmt.CoreFrom(ctx))
}

func (d *DCS) handleInputSwPress(ctx context.Context, msg *cmt.Message) {
	d.inputPressed.Store(true)
	n := d.presses.Add(1)
	glog.V(1).Infof("DCS: user switch pressed (%d)", n)
}

func (d *DCS) handleInputSwRelease(ctx context.Context, msg *cmt.Message) {
	d.inputPressed.Store(false)
	glog.V(1).Info("DCS: user switch released")
}

func (d *DCS) handleSwitchLongPress(ctx context.Context, msg *cmt.Message) {
	action, _ := cmt.PayloadAs[cmt.SwitchAction](msg)
	d.longPresses.Add(1)
	glog.V(1).Infof("DCS: switch %d long press, repeat=%v", action.SwitchID, action.Repeat)
}

func (d *DCS) handleSensBankChange(ctx context.Context, msg *cmt.Message) {
	change, _ := cmt.PayloadAs[cmt.SensorBankChange](msg)
	d.bankBits.Store(uint32(change.Bits))
	glog.V(1).Infof("DCS: switch bank %08b -> %08b", change.PrevBits, change.Bits)
}

func (d *DCS) handleDisplayMessage(ctx context.Context, msg *cmt.Message) {
	text, _ := cmt.PayloadAs[cmt.Text](msg)
	d.display.Store(string(text))
	glog.Info(string(text))
}
