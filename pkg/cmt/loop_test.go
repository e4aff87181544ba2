package cmt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDispatchExplicitHandler(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core0)

	var handled []Message
	handler := HandleMessageFunc(func(ctx context.Context, msg *Message) {
		handled = append(handled, *msg)
	})
	var tableCalls int
	lc := &LoopContext{
		Handlers: HandlerTable{
			Entry(KindSwitchAction, func(context.Context, *Message) { tableCalls++ }),
		},
	}
	data := SwitchAction{SwitchID: 2, Pressed: true}
	require.NoError(t, c.Post(NewMessageWithHandler(KindSwitchAction, PrioritySecondaryNormal, handler).WithData(data)))
	require.True(t, c.Step(context.Background(), lc))
	require.False(t, c.Step(context.Background(), lc))

	require.Len(t, handled, 1)
	require.Equal(t, KindSwitchAction, handled[0].Kind)
	require.Equal(t, PrioritySecondaryNormal, handled[0].Priority)
	require.Equal(t, data, handled[0].Data)
	require.Zero(t, tableCalls)

	// without the explicit handler it goes through the table
	msg := handled[0]
	msg.RemoveHandler()
	require.NoError(t, c.Post(msg))
	require.True(t, c.Step(context.Background(), lc))
	require.Len(t, handled, 1)
	require.Equal(t, 1, tableCalls)
}

func TestDispatchTable(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core1)

	var calls []string
	lc := &LoopContext{
		Handlers: HandlerTable{
			Entry(KindHousekeeping, func(context.Context, *Message) { calls = append(calls, "a") }),
			Entry(KindDCSNoop, func(context.Context, *Message) { calls = append(calls, "noop") }),
			Entry(KindHousekeeping, func(context.Context, *Message) { calls = append(calls, "b") }),
		},
	}
	require.NoError(t, c.Post(NewMessage(KindHousekeeping)))
	require.NoError(t, c.Post(NewMessage(KindHWOSStarted)))
	require.True(t, c.Step(context.Background(), lc))
	require.True(t, c.Step(context.Background(), lc))
	require.False(t, c.Step(context.Background(), lc))
	require.Equal(t, []string{"a", "b"}, calls)
}

func TestIdleRoundRobin(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core0)

	var calls []string
	lc := &LoopContext{
		Idle: []IdleFunc{
			func(context.Context) { calls = append(calls, "a") },
			func(context.Context) { calls = append(calls, "b") },
		},
	}
	for i := 0; i < 3; i++ {
		require.False(t, c.Step(context.Background(), lc))
	}
	require.NoError(t, c.Post(NewMessage(KindNoop)))
	require.True(t, c.Step(context.Background(), lc))
	require.False(t, c.Step(context.Background(), lc))
	require.Equal(t, []string{"a", "b", "a", "b"}, calls)
}

func TestRun(t *testing.T) {
	env := newTestEnv(t)
	started := make(chan struct{})
	received := make(chan Message, 4)
	lcs := [NumCores]*LoopContext{
		{
			Started: func(ctx context.Context) {
				require.True(t, CoreFrom(ctx).Running())
				close(started)
			},
			Handlers: HandlerTable{
				Entry(KindDCSStarted, func(ctx context.Context, msg *Message) {
					require.Equal(t, Core0, CoreFrom(ctx).ID())
					received <- *msg
				}),
			},
		},
		{
			Handlers: HandlerTable{
				Entry(KindHWOSStarted, func(ctx context.Context, msg *Message) {
					require.NoError(t, env.core(Core0).Post(NewMessage(KindDCSStarted)))
				}),
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, NumCores)
	for n := range lcs {
		go func(c *Core, lc *LoopContext) {
			errs <- c.Run(ctx, lc)
		}(env.core(CoreID(n)), lcs[n])
	}
	<-started
	waitFor(t, "both loops", env.sys.LoopsRunning)

	err := env.core(Core0).Run(ctx, &LoopContext{})
	require.True(t, errors.Is(err, ErrLoopRunning))
	require.Equal(t, 1, env.fatal.count())

	require.NoError(t, env.core(Core1).Post(NewMessage(KindHWOSStarted)))
	select {
	case msg := <-received:
		require.Equal(t, KindDCSStarted, msg.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("handshake not completed")
	}

	cancel()
	for range lcs {
		require.Equal(t, context.Canceled, <-errs)
	}
	require.False(t, env.sys.LoopRunning(Core0))
	require.False(t, env.sys.LoopRunning(Core1))
}

func TestRunNotInitialized(t *testing.T) {
	rec := &fatalRecorder{}
	conf := DefaultConfig()
	conf.Panic = rec.record
	sys, err := New(conf)
	require.NoError(t, err)
	err = sys.Core(Core0).Run(context.Background(), nil)
	require.True(t, errors.Is(err, ErrNotInitialized))
	require.Equal(t, 1, rec.count())
	require.False(t, sys.LoopRunning(Core0))
}
