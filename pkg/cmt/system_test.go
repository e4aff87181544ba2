package cmt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitTwice(t *testing.T) {
	env := newTestEnv(t)
	require.True(t, env.sys.Initialized())
	err := env.sys.Init()
	require.True(t, errors.Is(err, ErrAlreadyInitialized))
	require.Equal(t, 1, env.fatal.count())
	require.Equal(t, "init", env.fatal.last().Op)
	require.Equal(t, "CMT - init: already initialized", env.fatal.last().Error())
}

func TestPostToBoth(t *testing.T) {
	env := newTestEnv(t)
	data := SwitchAction{SwitchID: 1, Pressed: true, Repeat: true}
	require.Equal(t, uint16(0x03), env.sys.PostToBothNonBlocking(NewMessage(KindSwitchLongPress).WithData(data)))

	msg0, ok := env.core(Core0).GetNonBlocking()
	require.True(t, ok)
	msg1, ok := env.core(Core1).GetNonBlocking()
	require.True(t, ok)
	for _, msg := range []Message{msg0, msg1} {
		require.Equal(t, KindSwitchLongPress, msg.Kind)
		require.Equal(t, data, msg.Data)
	}
	require.NotEqual(t, msg0.Seq, msg1.Seq)
}

func TestPostToBothPartial(t *testing.T) {
	env := newTestEnv(t)
	low := env.sys.Config().Queues[Core1].Low
	for i := 0; i < low; i++ {
		require.Equal(t, uint16(0x03), env.sys.PostToBothNonBlocking(NewMessage(KindNoop)))
	}
	require.Equal(t, uint16(0x01), env.sys.PostToBothNonBlocking(NewMessage(KindNoop)))
	require.Equal(t, low+1, env.core(Core0).QueueLevels().Normal)
	require.Equal(t, QueueLevels{Low: low}, env.core(Core1).QueueLevels())
}

func TestPostToBothOwned(t *testing.T) {
	env := newTestEnv(t)
	require.Zero(t, env.sys.PostToBothNonBlocking(NewMessage(KindRCRxMsgReady).WithData(Buffer{1, 2})))
	require.Equal(t, 1, env.fatal.count())
	require.True(t, errors.Is(env.fatal.last(), ErrOwnedPayload))
	require.Zero(t, env.core(Core0).QueueLevels().Total())
	require.Zero(t, env.core(Core1).QueueLevels().Total())
}

func TestNewInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"no slots", func(c *Config) { c.ScheduledSlots = 0 }},
		{"no tick", func(c *Config) { c.TickPeriod = 0 }},
		{"housekeeping not power of two", func(c *Config) { c.HousekeepingTicks = 12 }},
		{"housekeeping zero", func(c *Config) { c.HousekeepingTicks = 0 }},
		{"empty queue", func(c *Config) { c.Queues[Core1].Low = 0 }},
		{"broadcast priority", func(c *Config) { c.Queues[Core0].Both = Priority(7) }},
		{"negative retries", func(c *Config) { c.PostRetries = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			tc.modify(&conf)
			_, err := New(conf)
			require.Error(t, err)
		})
	}
}

func TestConfigVariant(t *testing.T) {
	conf := DefaultConfig()
	require.NoError(t, conf.ApplyVariant(VariantLeg))
	require.Equal(t, 32, conf.ScheduledSlots)
	require.Equal(t, StatsLongestHandler, conf.Stats)
	require.NoError(t, conf.ApplyVariant(VariantCtrl))
	require.Equal(t, 16, conf.ScheduledSlots)
	require.Equal(t, StatsIdleTime, conf.Stats)
	require.Error(t, conf.ApplyVariant("unknown"))
}

func TestSystemClock(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Advance(2500 * time.Millisecond)
	require.Equal(t, uint32(2500), env.sys.NowMS())
	require.Equal(t, uint64(2500000), env.sys.NowUS())

	clock := NewSystemClock()
	first := clock.NowUS()
	time.Sleep(2 * time.Millisecond)
	require.True(t, clock.NowUS() > first)
}
