package cmt

import "fmt"

// Priority selects the queue a message is posted to. It doesn't order
// messages within a queue.
type Priority uint8

// Priorities
const (
	PriorityNormal Priority = iota
	// PrioritySecondaryNormal is served ahead of Normal; it maps to the
	// High queue.
	PrioritySecondaryNormal
	PriorityLow
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PrioritySecondaryNormal:
		return "secondary"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// Message is the unit of communication between and within cores.
type Message struct {
	Kind     Kind
	Priority Priority
	Data     Payload
	// Handler, when set, is invoked instead of the handler table lookup.
	Handler MessageHandler

	// Seq and PostedMS are stamped by the posting system.
	Seq      uint32
	PostedMS uint32
}

// NewMessage creates a Normal priority message with no payload and no
// explicit handler.
func NewMessage(kind Kind) Message {
	return Message{Kind: kind, Priority: PriorityNormal}
}

// NewMessageWithPriority creates a message with the given priority.
func NewMessageWithPriority(kind Kind, priority Priority) Message {
	return Message{Kind: kind, Priority: priority}
}

// NewMessageWithHandler creates a message that is dispatched to handler
// rather than through the handler table.
func NewMessageWithHandler(kind Kind, priority Priority, handler MessageHandler) Message {
	return Message{Kind: kind, Priority: priority, Handler: handler}
}

// WithData sets the payload and returns the message for chaining.
func (m Message) WithData(data Payload) Message {
	m.Data = data
	return m
}

// RemoveHandler clears the explicit handler so a re-posted message is
// dispatched through the handler table of its destination.
func (m *Message) RemoveHandler() {
	m.Handler = nil
}

// HasHandler reports whether the message carries an explicit handler.
func (m *Message) HasHandler() bool {
	return m.Handler != nil
}

// Validate checks the payload shape against the kind.
func (m *Message) Validate() error {
	if !m.Kind.acceptsPayload(m.Data) {
		return fmt.Errorf("%w: %s can't carry %T", ErrPayloadShape, m.Kind, m.Data)
	}
	return nil
}

// String implements fmt.Stringer.
func (m Message) String() string {
	if m.Data == nil {
		return fmt.Sprintf("%s/%s #%d @%dms", m.Kind, m.Priority, m.Seq, m.PostedMS)
	}
	return fmt.Sprintf("%s/%s #%d @%dms %v", m.Kind, m.Priority, m.Seq, m.PostedMS, m.Data)
}
