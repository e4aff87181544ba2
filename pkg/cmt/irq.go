package cmt

import (
	"sync"
	"sync/atomic"
)

// State is the interrupt state returned by Disable.
type State uintptr

// IRQ is an interrupt line number.
type IRQ uint8

// Interrupt lines
const (
	IRQTick IRQ = iota
	IRQGPIO
	IRQUART0
	IRQUART1
	IRQDMA
	IRQPIO
)

// Interrupts models the interrupt mask of the core the tick fires on.
// Normal context code disables interrupts around short critical sections;
// the tick body runs with the mask held, so it never interleaves with one.
type Interrupts struct {
	mask    sync.Mutex
	enabled atomic.Uint32
}

// Disable masks interrupts and returns the previous state.
func (i *Interrupts) Disable() State {
	i.mask.Lock()
	return State(i.enabled.Load())
}

// Restore restores the interrupt state.
func (i *Interrupts) Restore(state State) {
	i.mask.Unlock()
}

// EnableIRQ marks an interrupt line as enabled.
func (i *Interrupts) EnableIRQ(line IRQ) {
	for {
		old := i.enabled.Load()
		if i.enabled.CompareAndSwap(old, old|1<<line) {
			return
		}
	}
}

// DisableIRQ marks an interrupt line as disabled.
func (i *Interrupts) DisableIRQ(line IRQ) {
	for {
		old := i.enabled.Load()
		if i.enabled.CompareAndSwap(old, old&^(1<<line)) {
			return
		}
	}
}

// Enabled returns the bitmap of enabled interrupt lines.
func (i *Interrupts) Enabled() uint32 {
	return i.enabled.Load()
}
