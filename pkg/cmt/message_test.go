package cmt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(KindHousekeeping)
	require.Equal(t, KindHousekeeping, msg.Kind)
	require.Equal(t, PriorityNormal, msg.Priority)
	require.Nil(t, msg.Data)
	require.False(t, msg.HasHandler())
	require.Zero(t, msg.Seq)
	require.Zero(t, msg.PostedMS)

	msg = NewMessageWithPriority(KindHousekeeping, PriorityLow)
	require.Equal(t, PriorityLow, msg.Priority)
	require.False(t, msg.HasHandler())

	msg = NewMessageWithHandler(KindExec, PrioritySecondaryNormal, HandleMessageFunc(func(context.Context, *Message) {}))
	require.Equal(t, PrioritySecondaryNormal, msg.Priority)
	require.True(t, msg.HasHandler())
	msg.RemoveHandler()
	require.False(t, msg.HasHandler())
}

func TestMessageValidate(t *testing.T) {
	testCases := []struct {
		name  string
		msg   Message
		valid bool
	}{
		{"no payload", NewMessage(KindHousekeeping), true},
		{"matching shape", NewMessage(KindRotaryChange).WithData(RotaryDelta(-2)), true},
		{"struct shape", NewMessage(KindSwitchAction).WithData(SwitchAction{SwitchID: 1, Pressed: true}), true},
		{"wrong shape", NewMessage(KindRotaryChange).WithData(Bool(true)), false},
		{"payload on empty kind", NewMessage(KindHousekeeping).WithData(Status(1)), false},
		{"any shape", NewMessage(KindExec).WithData(Text("x")), true},
		{"unregistered kind", NewMessage(GroupCustom + 5).WithData(Char('a')), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrPayloadShape))
			}
		})
	}
}

func TestKind(t *testing.T) {
	require.Equal(t, "Housekeeping", KindHousekeeping.String())
	require.Equal(t, "DCSStarted", KindDCSStarted.String())
	require.Equal(t, "Kind(0x7f05)", (GroupCustom + 5).String())
	require.Equal(t, GroupHWOS, KindRotaryChange.Group())
	require.Equal(t, GroupDCS, KindHWOSStarted.Group())
	require.Equal(t, GroupCommon, KindSleep.Group())

	custom := GroupCustom + 0x10
	RegisterKind(custom, "Custom", Status(0))
	require.Equal(t, "Custom", custom.String())
	msg := NewMessage(custom).WithData(Text("x"))
	require.Error(t, msg.Validate())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("housekeeping")
	require.NoError(t, err)
	require.Equal(t, KindHousekeeping, kind)
	kind, err = ParseKind("0x7f05")
	require.NoError(t, err)
	require.Equal(t, GroupCustom+5, kind)
	_, err = ParseKind("nope")
	require.Error(t, err)

	prio, err := ParsePriority("Low")
	require.NoError(t, err)
	require.Equal(t, PriorityLow, prio)
	_, err = ParsePriority("urgent")
	require.Error(t, err)
}

func TestPayloadAs(t *testing.T) {
	msg := NewMessage(KindRotaryChange).WithData(RotaryDelta(3))
	delta, ok := PayloadAs[RotaryDelta](&msg)
	require.True(t, ok)
	require.Equal(t, RotaryDelta(3), delta)
	_, ok = PayloadAs[Bool](&msg)
	require.False(t, ok)

	empty := NewMessage(KindHousekeeping)
	_, ok = PayloadAs[RotaryDelta](&empty)
	require.False(t, ok)

	require.True(t, IsOwned(Buffer{1}))
	require.True(t, IsOwned(SleepData{}))
	require.False(t, IsOwned(Status(1)))
	require.False(t, IsOwned(nil))
}

func TestHandlerTable(t *testing.T) {
	var calls []string
	table := HandlerTable{
		Entry(KindRotaryChange, func(context.Context, *Message) { calls = append(calls, "first") }),
		Entry(KindHousekeeping, func(context.Context, *Message) { calls = append(calls, "housekeeping") }),
		Entry(KindRotaryChange, func(context.Context, *Message) { calls = append(calls, "second") }),
	}
	msg := NewMessage(KindRotaryChange)
	require.Equal(t, 2, table.Dispatch(context.Background(), &msg))
	require.Equal(t, []string{"first", "second"}, calls)

	msg = NewMessage(KindSleep)
	require.Equal(t, 0, table.Dispatch(context.Background(), &msg))
	require.True(t, table.Handles(KindHousekeeping))
	require.False(t, table.Handles(KindSleep))
}
