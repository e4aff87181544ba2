package rover

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

const swNone uint8 = 0xff

// HWOS is the hardware OS running on core 0.
type HWOS struct {
	sys   *cmt.System
	conf  Config
	user  UserSwitch
	banks SwitchBank

	dcsStarted   atomic.Bool
	inputPressed atomic.Bool
	housekeeping atomic.Uint32
	rotary       atomic.Int32
	bankBits     atomic.Uint32
	test         *SelfTest

	// owned by the core 0 loop
	swPressed uint8
}

// NewHWOS creates the core 0 application.
func NewHWOS(sys *cmt.System, conf Config, user UserSwitch, banks SwitchBank) *HWOS {
	return &HWOS{
		sys:       sys,
		conf:      conf,
		user:      user,
		banks:     banks,
		test:      newSelfTest(cmt.KindHWOSTest, conf),
		swPressed: swNone,
	}
}

// LoopContext returns the dispatch loop setup of core 0.
func (h *HWOS) LoopContext() *cmt.LoopContext {
	return &cmt.LoopContext{
		Handlers: cmt.HandlerTable{
			cmt.Entry(cmt.KindHousekeeping, h.handleHousekeeping),
			cmt.Entry(cmt.KindSwitchAction, h.handleSwitchAction),
			cmt.Entry(cmt.KindSwLongPressDelay, h.handleLongPressDelay),
			cmt.Entry(cmt.KindRotaryChange, h.handleRotaryChange),
			cmt.Entry(cmt.KindInputSwDebounce, h.handleInputSwDebounce),
			cmt.Entry(cmt.KindDCSStarted, h.handleDCSStarted),
			cmt.Entry(cmt.KindSensBankChange, h.handleSensBankChange),
			cmt.Entry(cmt.KindHWOSTest, h.test.handle),
			cmt.SleepHandlerEntry,
		},
		Idle:    []cmt.IdleFunc{h.refreshInputSwitch},
		Started: h.started,
	}
}

// DCSStarted reports whether core 1 has answered the start-up handshake.
func (h *HWOS) DCSStarted() bool {
	return h.dcsStarted.Load()
}

// InputPressed reports whether a user switch press has been reported.
func (h *HWOS) InputPressed() bool {
	return h.inputPressed.Load()
}

// Housekeeping returns the number of Housekeeping messages handled.
func (h *HWOS) Housekeeping() uint32 {
	return h.housekeeping.Load()
}

// RotaryPosition returns the accumulated rotary encoder position.
func (h *HWOS) RotaryPosition() int32 {
	return h.rotary.Load()
}

// SwitchBits returns the last reported switch bank bits.
func (h *HWOS) SwitchBits() uint8 {
	return uint8(h.bankBits.Load())
}

// SelfTest returns the scheduled delay self test of core 0.
func (h *HWOS) SelfTest() *SelfTest {
	return h.test
}

// InputSwitchEdge is the edge interrupt handler of the user switch. The
// pin is shared with an infrared receiver, so the level must stay low for
// the debounce time to count as a press.
func (h *HWOS) InputSwitchEdge(falling, rising bool) {
	if falling && !h.sys.Exists(cmt.KindInputSwDebounce) {
		if err := h.sys.ScheduleIn(cmt.Core0, ms(h.conf.Debounce), cmt.NewMessage(cmt.KindInputSwDebounce)); err != nil {
			return
		}
	}
	if rising {
		h.sys.Cancel(cmt.KindInputSwDebounce)
		if h.inputPressed.CompareAndSwap(true, false) {
			h.postDCS(cmt.NewMessage(cmt.KindInputSwRelease))
		}
	}
}

func (h *HWOS) started(ctx context.Context) {
	glog.Info("HWOS started")
	h.postDCS(cmt.NewMessage(cmt.KindHWOSStarted))
	h.test.start(cmt.CoreFrom(ctx))
}

func (h *HWOS) postDCS(msg cmt.Message) {
	if err := h.sys.Core(cmt.Core1).Post(msg); err != nil {
		glog.Warningf("HWOS: %s not posted: %v", msg.Kind, err)
	}
}

func (h *HWOS) refreshInputSwitch(context.Context) {
	if h.inputPressed.Load() && !h.user.Pressed() {
		h.inputPressed.Store(false)
	}
}

func (h *HWOS) handleHousekeeping(ctx context.Context, msg *cmt.Message) {
	h.housekeeping.Add(1)
	if h.dcsStarted.Load() && h.banks != nil {
		h.banks.TriggerRead()
	}
}

func (h *HWOS) handleDCSStarted(ctx context.Context, msg *cmt.Message) {
	glog.Info("HWOS: DCS started")
	h.dcsStarted.Store(true)
}

func (h *HWOS) handleSensBankChange(ctx context.Context, msg *cmt.Message) {
	change, _ := cmt.PayloadAs[cmt.SensorBankChange](msg)
	h.bankBits.Store(uint32(change.Bits))
}

func (h *HWOS) handleInputSwDebounce(ctx context.Context, msg *cmt.Message) {
	pressed := h.user.Pressed()
	h.inputPressed.Store(pressed)
	if pressed {
		h.postDCS(cmt.NewMessage(cmt.KindInputSwPress))
	}
}

func (h *HWOS) handleRotaryChange(ctx context.Context, msg *cmt.Message) {
	delta, _ := cmt.PayloadAs[cmt.RotaryDelta](msg)
	pos := h.rotary.Add(int32(delta))
	glog.V(2).Infof("RE: p:%5d d:%3d", pos, delta)
}

// handleSwitchAction tracks one pressed switch to detect a long press.
func (h *HWOS) handleSwitchAction(ctx context.Context, msg *cmt.Message) {
	action, _ := cmt.PayloadAs[cmt.SwitchAction](msg)
	if !action.Pressed {
		h.sys.Cancel(cmt.KindSwLongPressDelay)
		h.swPressed = swNone
		return
	}
	h.swPressed = action.SwitchID
	h.scheduleLongPress(ctx, action.SwitchID, false, h.conf.LongPress)
}

func (h *HWOS) handleLongPressDelay(ctx context.Context, msg *cmt.Message) {
	action, _ := cmt.PayloadAs[cmt.SwitchAction](msg)
	if action.SwitchID != h.swPressed || h.swPressed == swNone {
		return
	}
	h.sys.PostToBothNonBlocking(cmt.NewMessage(cmt.KindSwitchLongPress).WithData(cmt.SwitchAction{
		SwitchID: action.SwitchID,
		Pressed:  true,
		Repeat:   action.Repeat,
	}))
	delay := h.conf.LongPress
	if action.Repeat {
		delay = h.conf.Repeat
	}
	h.scheduleLongPress(ctx, action.SwitchID, true, delay)
}

func (h *HWOS) scheduleLongPress(ctx context.Context, id uint8, repeat bool, delay time.Duration) {
	msg := cmt.NewMessage(cmt.KindSwLongPressDelay).WithData(cmt.SwitchAction{
		SwitchID: id,
		Pressed:  true,
		Repeat:   repeat,
	})
	if err := cmt.CoreFrom(ctx).ScheduleIn(ms(delay), msg); err != nil {
		glog.Errorf("HWOS: long press delay: %v", err)
	}
}
