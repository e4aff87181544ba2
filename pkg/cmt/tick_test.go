package cmt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeeping(t *testing.T) {
	env := newTestEnv(t)
	env.ticks(15)
	require.Zero(t, env.core(Core0).QueueLevels().Total())
	require.Zero(t, env.core(Core1).QueueLevels().Total())

	env.ticks(1)
	require.Equal(t, uint32(16), env.sys.TickSource().Count())
	require.Equal(t, QueueLevels{Normal: 1}, env.core(Core0).QueueLevels())
	require.Equal(t, QueueLevels{Low: 1}, env.core(Core1).QueueLevels())
	msg, ok := env.core(Core1).GetNonBlocking()
	require.True(t, ok)
	require.Equal(t, KindHousekeeping, msg.Kind)
	require.Equal(t, PriorityLow, msg.Priority)

	env.ticks(32)
	require.Len(t, env.drain(Core0), 3)
	require.Len(t, env.drain(Core1), 2)
}

func TestHousekeepingQueueFull(t *testing.T) {
	env := newTestEnv(t, func(conf *Config) { conf.HousekeepingTicks = 1 })
	low := env.sys.Config().Queues[Core1].Low
	for i := 0; i < low; i++ {
		require.Equal(t, uint16(0x03), env.sys.PostToBothNonBlocking(NewMessage(KindNoop)))
	}
	env.ticks(4)
	require.Equal(t, low+4, env.core(Core0).QueueLevels().Normal)
	require.Equal(t, low, env.core(Core1).QueueLevels().Low)
	require.Zero(t, env.fatal.count())
}

func TestScheduledDroppedWhenQueueFull(t *testing.T) {
	env := newTestEnv(t, func(conf *Config) {
		conf.Queues[Core1] = QueueConfig{High: 1, Normal: 1, Low: 1}
		conf.HousekeepingTicks = 1024
	})
	require.NoError(t, env.core(Core1).Post(NewMessage(KindNoop)))
	require.NoError(t, env.core(Core1).Post(NewMessage(KindNoop)))
	require.NoError(t, env.sys.ScheduleIn(Core1, 1, NewMessage(KindDCSNoop)))
	env.ticks(1)
	require.Equal(t, 0, env.sys.ScheduledCount())
	require.Equal(t, uint32(1), env.core(Core1).PostErrors())
	require.Zero(t, env.fatal.count())
	require.Equal(t, []Kind{KindNoop, KindNoop}, kindsOf(env.drain(Core1)))
}

func TestTickSourceRun(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sys.ScheduleIn(Core0, 5, NewMessage(KindHWOSNoop)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- env.sys.TickSource().Run(ctx)
	}()

	getCtx, getCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer getCancel()
	msg, err := env.core(Core0).Get(getCtx)
	require.NoError(t, err)
	require.Equal(t, KindHWOSNoop, msg.Kind)
	require.NotZero(t, env.sys.Interrupts().Enabled()&(1<<IRQTick))

	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Zero(t, env.sys.Interrupts().Enabled()&(1<<IRQTick))
}
