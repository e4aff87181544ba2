package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cmt.go/pkg/board"
	"github.com/robotalks/cmt.go/pkg/cmt"
)

func newTestShell(t *testing.T) *Shell {
	conf := cmt.DefaultConfig()
	conf.Clock = &cmt.ManualClock{}
	conf.Panic = func(err *cmt.FatalError) { t.Errorf("fatal: %v", err) }
	sys, err := cmt.New(conf)
	require.NoError(t, err)
	b, err := board.New(sys)
	require.NoError(t, err)
	return New(b)
}

func TestParseCore(t *testing.T) {
	for _, s := range []string{"1", "core1", "Core1"} {
		id, err := ParseCore(s)
		require.NoError(t, err)
		require.Equal(t, cmt.Core1, id)
	}
	for _, s := range []string{"2", "x", "core-1"} {
		_, err := ParseCore(s)
		require.Error(t, err, s)
	}
}

func TestPostCommands(t *testing.T) {
	s := newTestShell(t)
	out, err := s.Exec("post", "core0", "noop")
	require.NoError(t, err)
	require.Equal(t, "OK", out)
	_, err = s.Exec("p", "0", "noop", "low")
	require.NoError(t, err)
	_, err = s.Exec("postnb", "1", "DCSNoop")
	require.NoError(t, err)

	require.Equal(t, cmt.QueueLevels{High: 1, Low: 1}, s.Sys.Core(cmt.Core0).QueueLevels())
	require.Equal(t, cmt.QueueLevels{High: 0, Normal: 1}, s.Sys.Core(cmt.Core1).QueueLevels())

	out, err = s.Exec("both", "ConfigChanged")
	require.NoError(t, err)
	require.Equal(t, "0x03", out)

	s.OutputJSON = true
	out, err = s.Exec("levels", "core0")
	require.NoError(t, err)
	require.JSONEq(t, `{"High":1,"Normal":1,"Low":1}`, out)

	_, err = s.Exec("post", "core0", "nope")
	require.Error(t, err)
	_, err = s.Exec("post", "core0")
	require.Error(t, err)
	_, err = s.Exec("unknown")
	require.Error(t, err)
}

func TestScheduleCommands(t *testing.T) {
	s := newTestShell(t)
	_, err := s.Exec("schedule", "1", "50", "DCSTest")
	require.NoError(t, err)
	_, err = s.Exec("s", "0", "20", "HWOSTest")
	require.NoError(t, err)

	out, err := s.Exec("exists", "DCSTest")
	require.NoError(t, err)
	require.Equal(t, "true", out)

	info, err := lookup("sched").Run(s, nil)
	require.NoError(t, err)
	require.Equal(t, 2, info.(ScheduledInfo).Count)
	require.ElementsMatch(t, []string{"DCSTest", "HWOSTest"}, info.(ScheduledInfo).Kinds)

	out, err = s.Exec("cancel", "DCSTest")
	require.NoError(t, err)
	require.Equal(t, "1", out)
	out, err = s.Exec("exists", "DCSTest")
	require.NoError(t, err)
	require.Equal(t, "false", out)

	out, err = s.Exec("tick", "25")
	require.NoError(t, err)
	require.Equal(t, "25", out)
	var fired []cmt.Kind
	for {
		msg, ok := s.Sys.Core(cmt.Core0).GetNonBlocking()
		if !ok {
			break
		}
		if msg.Kind != cmt.KindHousekeeping {
			fired = append(fired, msg.Kind)
		}
	}
	require.Equal(t, []cmt.Kind{cmt.KindHWOSTest}, fired)
}

func TestStatusCommand(t *testing.T) {
	s := newTestShell(t)
	out, err := s.Exec("status")
	require.NoError(t, err)
	require.Contains(t, out, "core0: ")
	require.Contains(t, out, "core1: ")

	s.OutputJSON = true
	out, err = s.Exec("status")
	require.NoError(t, err)
	require.Contains(t, out, `"core1"`)
}
