package rover

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// UserSwitch is the user input switch.
type UserSwitch interface {
	Pressed() bool
}

// SwitchBank reads the banks of switches. The result is reported
// asynchronously as SwitchAction messages to core 0.
type SwitchBank interface {
	TriggerRead()
}

// NumBankSwitches is the number of switches in the switch bank.
const NumBankSwitches = 8

// SimInputs simulates the rover inputs for a hosted board.
type SimInputs struct {
	sys *cmt.System

	lock     sync.Mutex
	user     bool
	bank     uint8
	reported uint8
	edge     func(falling, rising bool)
}

// NewSimInputs creates simulated inputs posting to sys.
func NewSimInputs(sys *cmt.System) *SimInputs {
	return &SimInputs{sys: sys}
}

// OnUserSwitchEdge sets the edge interrupt handler of the user switch.
func (s *SimInputs) OnUserSwitchEdge(fn func(falling, rising bool)) {
	s.lock.Lock()
	s.edge = fn
	s.lock.Unlock()
}

// Pressed implements UserSwitch.
func (s *SimInputs) Pressed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.user
}

// SetUserSwitch changes the state of the user switch and raises the edge
// interrupt. The switch is active low, so a press is a falling edge.
func (s *SimInputs) SetUserSwitch(pressed bool) {
	s.lock.Lock()
	changed := s.user != pressed
	s.user = pressed
	edge := s.edge
	s.lock.Unlock()
	if changed && edge != nil {
		edge(pressed, !pressed)
	}
}

// SetSwitch changes the state of a bank switch. It is reported on the next
// TriggerRead.
func (s *SimInputs) SetSwitch(id uint8, pressed bool) error {
	if id >= NumBankSwitches {
		return fmt.Errorf("switch %d out of range [0, %d)", id, NumBankSwitches)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if pressed {
		s.bank |= 1 << id
	} else {
		s.bank &^= 1 << id
	}
	return nil
}

// TriggerRead implements SwitchBank.
func (s *SimInputs) TriggerRead() {
	s.lock.Lock()
	bank, prev := s.bank, s.reported
	s.reported = bank
	s.lock.Unlock()
	if bank == prev {
		return
	}
	core := s.sys.Core(cmt.Core0)
	for id := uint8(0); id < NumBankSwitches; id++ {
		bit := uint8(1) << id
		if (bank^prev)&bit == 0 {
			continue
		}
		action := cmt.SwitchAction{SwitchID: id, Pressed: bank&bit != 0}
		if err := core.Post(cmt.NewMessage(cmt.KindSwitchAction).WithData(action)); err != nil {
			glog.Warningf("switch %d action dropped: %v", id, err)
		}
	}
	s.sys.PostToBothNonBlocking(cmt.NewMessageWithPriority(cmt.KindSensBankChange, cmt.PriorityLow).
		WithData(cmt.SensorBankChange{Bits: bank, PrevBits: prev}))
}

// Turn simulates the rotary encoder.
func (s *SimInputs) Turn(delta int16) bool {
	return s.sys.Core(cmt.Core0).PostNonBlocking(cmt.NewMessage(cmt.KindRotaryChange).WithData(cmt.RotaryDelta(delta)))
}
