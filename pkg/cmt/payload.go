package cmt

import "context"

// Payload is the data carried by a message. Exactly one shape is valid per
// Kind; see RegisterKind.
type Payload interface {
	isPayload()
}

// OwnedPayload is a payload holding a resource that exactly one handler may
// consume. Owned payloads can't be broadcast to both cores.
type OwnedPayload interface {
	Payload
	owned()
}

// Bool is a boolean payload.
type Bool bool

// Char is a single character payload.
type Char byte

// Status is a signed status or error code.
type Status int32

// RotaryDelta is the change of a rotary encoder since the last report.
type RotaryDelta int16

// TimestampMS is a millisecond timestamp.
type TimestampMS uint32

// TimestampUS is a microsecond timestamp.
type TimestampUS uint64

// Text is an immutable string payload.
type Text string

// Buffer carries a byte slice owned by the receiving handler.
type Buffer []byte

// SleepFunc is called on the sleeping core when a Sleep expires.
type SleepFunc func(ctx context.Context, userData interface{})

// SleepData is the payload of the internal Sleep message.
type SleepData struct {
	Func     SleepFunc
	UserData interface{}
}

// SwitchAction reports a press or release of a switch.
type SwitchAction struct {
	SwitchID uint8 `cbor:"1,keyasint"`
	Pressed  bool  `cbor:"2,keyasint"`
	Repeat   bool  `cbor:"3,keyasint"`
}

// ServoParams addresses a bus servo.
type ServoParams struct {
	ServoID  uint8  `cbor:"1,keyasint"`
	Position uint16 `cbor:"2,keyasint"`
	Time     uint16 `cbor:"3,keyasint"`
}

// SensorBankChange reports a change of the sensor bank bits.
type SensorBankChange struct {
	Bits     uint8 `cbor:"1,keyasint"`
	PrevBits uint8 `cbor:"2,keyasint"`
}

// ReceiverProtocol is the RC receiver wire protocol.
type ReceiverProtocol uint8

// Receiver protocols
const (
	ReceiverUnknown ReceiverProtocol = iota
	ReceiverSBUS
	ReceiverSRXL2
)

// ReceiverBaud is the detected RC receiver baud rate and protocol.
type ReceiverBaud struct {
	Baud     uint32           `cbor:"1,keyasint"`
	Protocol ReceiverProtocol `cbor:"2,keyasint"`
}

func (Bool) isPayload()             {}
func (Char) isPayload()             {}
func (Status) isPayload()           {}
func (RotaryDelta) isPayload()      {}
func (TimestampMS) isPayload()      {}
func (TimestampUS) isPayload()      {}
func (Text) isPayload()             {}
func (Buffer) isPayload()           {}
func (SleepData) isPayload()        {}
func (SwitchAction) isPayload()     {}
func (ServoParams) isPayload()      {}
func (SensorBankChange) isPayload() {}
func (ReceiverBaud) isPayload()     {}

func (Buffer) owned()    {}
func (SleepData) owned() {}

// PayloadAs returns the payload of msg as T. It reports false when the
// message carries no payload or a different shape.
func PayloadAs[T Payload](msg *Message) (T, bool) {
	v, ok := msg.Data.(T)
	return v, ok
}

// IsOwned reports whether p holds a resource with a single owner.
func IsOwned(p Payload) bool {
	_, ok := p.(OwnedPayload)
	return ok
}
