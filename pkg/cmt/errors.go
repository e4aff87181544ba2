package cmt

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

var (
	// ErrNoFreeSlot indicates the scheduled message table is exhausted.
	ErrNoFreeSlot = errors.New("no free scheduled message slot")
	// ErrQueueFull indicates the destination queue can't accept a message.
	ErrQueueFull = errors.New("queue full")
	// ErrAlreadyInitialized indicates a second initialization.
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrNotInitialized indicates the system was used before Init.
	ErrNotInitialized = errors.New("not initialized")
	// ErrLoopRunning indicates a dispatch loop was entered twice for a core.
	ErrLoopRunning = errors.New("message loop already running")
	// ErrPayloadShape indicates a payload which doesn't match its kind.
	ErrPayloadShape = errors.New("payload shape mismatch")
	// ErrOwnedPayload indicates an owned payload was broadcast to both cores.
	ErrOwnedPayload = errors.New("owned payload can't be posted to both cores")
)

// FatalError is an unrecoverable condition reported through the panic hook.
type FatalError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *FatalError) Error() string {
	return fmt.Sprintf("CMT - %s: %v", e.Op, e.Err)
}

// Unwrap returns the cause.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// PanicFunc reports a fatal condition. The board implementation halts and
// doesn't return.
type PanicFunc func(*FatalError)

// HaltPanic prints the diagnostic and halts the process.
func HaltPanic(err *FatalError) {
	glog.Fatalf("%v", err)
}
