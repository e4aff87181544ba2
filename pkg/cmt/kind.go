package cmt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Kind identifies what a message represents and which payload shape is valid.
type Kind uint16

// Kind groups
const (
	GroupCommon Kind = 0x0000
	GroupHWOS   Kind = 0x0100 // handled on core 0
	GroupDCS    Kind = 0x0200 // handled on core 1
	GroupCustom Kind = 0x7f00 // base for application defined kinds

	KindMaskGroup Kind = 0xff00
)

// Common kinds, used by both cores.
const (
	KindNoop Kind = GroupCommon + iota
	KindExec
	KindConfigChanged
	KindSleep
	KindDebugChanged
	KindHousekeeping
	KindInputSwPress
	KindInputSwRelease
	KindSensBankChange
	KindSwitchAction
	KindSwitchLongPress
	KindTermCharRcvd
)

// Hardware OS (core 0) kinds.
const (
	KindHWOSNoop Kind = GroupHWOS + iota
	KindHWOSTest
	KindInputSwDebounce
	KindMainUserSwitchPress
	KindRCDetecting
	KindRCDetectDataAvail
	KindRCDetected
	KindRCRxError
	KindRCRxMsgReady
	KindRotaryChange
	KindServoDataRcvd
	KindServoDataRxTimeout
	KindServoReadError
	KindServoStatusRcvd
	KindStdioCharReady
	KindSwLongPressDelay
	KindTouchPanel
	KindDCSStarted
)

// Drive Control System (core 1) kinds.
const (
	KindDCSNoop Kind = GroupDCS + iota
	KindDCSTest
	KindHWOSStarted
	KindDisplayMessage
)

type kindInfo struct {
	name  string
	shape reflect.Type // nil accepts only an empty payload
	any   bool         // accepts every payload shape
}

var (
	kindsLock sync.RWMutex
	kinds     = map[Kind]kindInfo{}
)

func init() {
	for _, k := range []struct {
		kind  Kind
		name  string
		shape Payload
	}{
		{KindNoop, "Noop", nil},
		{KindConfigChanged, "ConfigChanged", nil},
		{KindSleep, "Sleep", SleepData{}},
		{KindDebugChanged, "DebugChanged", Bool(false)},
		{KindHousekeeping, "Housekeeping", nil},
		{KindInputSwPress, "InputSwPress", nil},
		{KindInputSwRelease, "InputSwRelease", nil},
		{KindSensBankChange, "SensBankChange", SensorBankChange{}},
		{KindSwitchAction, "SwitchAction", SwitchAction{}},
		{KindSwitchLongPress, "SwitchLongPress", SwitchAction{}},
		{KindTermCharRcvd, "TermCharRcvd", Char(0)},
		{KindHWOSNoop, "HWOSNoop", nil},
		{KindHWOSTest, "HWOSTest", TimestampUS(0)},
		{KindInputSwDebounce, "InputSwDebounce", nil},
		{KindMainUserSwitchPress, "MainUserSwitchPress", nil},
		{KindRCDetecting, "RCDetecting", nil},
		{KindRCDetectDataAvail, "RCDetectDataAvail", nil},
		{KindRCDetected, "RCDetected", ReceiverBaud{}},
		{KindRCRxError, "RCRxError", Status(0)},
		{KindRCRxMsgReady, "RCRxMsgReady", Buffer(nil)},
		{KindRotaryChange, "RotaryChange", RotaryDelta(0)},
		{KindServoDataRcvd, "ServoDataRcvd", ServoParams{}},
		{KindServoDataRxTimeout, "ServoDataRxTimeout", ServoParams{}},
		{KindServoReadError, "ServoReadError", Status(0)},
		{KindServoStatusRcvd, "ServoStatusRcvd", ServoParams{}},
		{KindStdioCharReady, "StdioCharReady", Char(0)},
		{KindSwLongPressDelay, "SwLongPressDelay", SwitchAction{}},
		{KindTouchPanel, "TouchPanel", TimestampMS(0)},
		{KindDCSStarted, "DCSStarted", nil},
		{KindDCSNoop, "DCSNoop", nil},
		{KindDCSTest, "DCSTest", TimestampUS(0)},
		{KindHWOSStarted, "HWOSStarted", nil},
		{KindDisplayMessage, "DisplayMessage", Text("")},
	} {
		RegisterKind(k.kind, k.name, k.shape)
	}
	registerAnyKind(KindExec, "Exec")
}

// RegisterKind names a kind and declares its payload shape. A nil shape
// declares a kind that carries no payload. Registering an existing kind
// replaces it.
func RegisterKind(kind Kind, name string, shape Payload) {
	info := kindInfo{name: name}
	if shape != nil {
		info.shape = reflect.TypeOf(shape)
	}
	kindsLock.Lock()
	kinds[kind] = info
	kindsLock.Unlock()
}

// registerAnyKind registers a general purpose kind accepting any payload.
func registerAnyKind(kind Kind, name string) {
	kindsLock.Lock()
	kinds[kind] = kindInfo{name: name, any: true}
	kindsLock.Unlock()
}

func lookupKind(kind Kind) (kindInfo, bool) {
	kindsLock.RLock()
	info, ok := kinds[kind]
	kindsLock.RUnlock()
	return info, ok
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if info, ok := lookupKind(k); ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%#04x)", uint16(k))
}

// ParseKind parses a registered kind name, case insensitive, or a
// numeric kind such as 0x7f05.
func ParseKind(s string) (Kind, error) {
	kindsLock.RLock()
	for kind, info := range kinds {
		if strings.EqualFold(info.name, s) {
			kindsLock.RUnlock()
			return kind, nil
		}
	}
	kindsLock.RUnlock()
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown kind %q", s)
	}
	return Kind(v), nil
}

// ParsePriority parses the name of a priority.
func ParsePriority(s string) (Priority, error) {
	for p := PriorityNormal; p <= PriorityLow; p++ {
		if strings.EqualFold(p.String(), s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// Group returns the group the kind belongs to.
func (k Kind) Group() Kind {
	return k & KindMaskGroup
}

// acceptsPayload reports whether p is a valid payload shape for the kind.
// Unregistered kinds accept anything.
func (k Kind) acceptsPayload(p Payload) bool {
	info, ok := lookupKind(k)
	if !ok || info.any || p == nil {
		return true
	}
	return info.shape != nil && reflect.TypeOf(p) == info.shape
}
