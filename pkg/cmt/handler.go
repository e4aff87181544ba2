package cmt

import "context"

// MessageHandler processes a message on the core it was dequeued by.
type MessageHandler interface {
	HandleMessage(context.Context, *Message)
}

// HandleMessageFunc is the func form of MessageHandler.
type HandleMessageFunc func(context.Context, *Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg *Message) {
	f(ctx, msg)
}

// HandlerEntry binds a handler to a message kind.
type HandlerEntry struct {
	Kind    Kind
	Handler MessageHandler
}

// Entry is a shortcut to create a HandlerEntry from a func.
func Entry(kind Kind, fn func(context.Context, *Message)) HandlerEntry {
	return HandlerEntry{Kind: kind, Handler: HandleMessageFunc(fn)}
}

// HandlerTable is an ordered list of handler entries. Lookup is a linear
// scan; put the most frequent kinds first.
type HandlerTable []HandlerEntry

// Dispatch invokes every entry matching the kind of msg, in table order,
// and returns the number of handlers invoked.
func (t HandlerTable) Dispatch(ctx context.Context, msg *Message) int {
	var n int
	for i := range t {
		if t[i].Kind == msg.Kind {
			t[i].Handler.HandleMessage(ctx, msg)
			n++
		}
	}
	return n
}

// Handles reports whether any entry matches kind.
func (t HandlerTable) Handles(kind Kind) bool {
	for i := range t {
		if t[i].Kind == kind {
			return true
		}
	}
	return false
}

// IdleFunc runs on a core when no message is ready.
type IdleFunc func(context.Context)

// StartedFunc is called once the dispatch loop of a core is running.
type StartedFunc func(context.Context)

// LoopContext configures the dispatch loop of a core.
type LoopContext struct {
	Handlers HandlerTable
	Idle     []IdleFunc
	Started  StartedFunc
}

// handleSleep runs the callback carried by a Sleep message.
var handleSleep = HandleMessageFunc(func(ctx context.Context, msg *Message) {
	if sd, ok := PayloadAs[SleepData](msg); ok && sd.Func != nil {
		sd.Func(ctx, sd.UserData)
	}
})

// SleepHandlerEntry handles Sleep messages that were re-posted without
// their explicit handler.
var SleepHandlerEntry = HandlerEntry{Kind: KindSleep, Handler: handleSleep}

type coreCtxKey struct{}

// CoreFrom returns the core a handler is running on, or nil outside of a
// dispatch loop.
func CoreFrom(ctx context.Context) *Core {
	c, _ := ctx.Value(coreCtxKey{}).(*Core)
	return c
}

func withCore(ctx context.Context, c *Core) context.Context {
	return context.WithValue(ctx, coreCtxKey{}, c)
}
