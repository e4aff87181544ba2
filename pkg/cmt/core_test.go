package cmt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostRouting(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core0)

	require.NoError(t, c.Post(NewMessageWithPriority(KindHousekeeping, PriorityLow)))
	require.Equal(t, QueueLevels{High: 1}, c.QueueLevels())
	require.NoError(t, c.Post(NewMessageWithPriority(KindHousekeeping, PriorityLow)))
	require.NoError(t, c.Post(NewMessage(KindHousekeeping)))
	require.NoError(t, c.Post(NewMessageWithPriority(KindHousekeeping, PrioritySecondaryNormal)))
	require.Equal(t, QueueLevels{High: 2, Normal: 1, Low: 1}, c.QueueLevels())
	require.Equal(t, 4, c.QueueLevels().Total())
}

func TestGetPriorityOrder(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core0)

	// the first post lands in High as all queues are empty
	require.NoError(t, c.Post(NewMessage(KindNoop)))
	require.NoError(t, c.Post(NewMessageWithPriority(KindInputSwRelease, PriorityLow)))
	require.NoError(t, c.Post(NewMessage(KindInputSwPress)))
	require.NoError(t, c.Post(NewMessageWithPriority(KindConfigChanged, PrioritySecondaryNormal)))

	msgs := env.drain(Core0)
	require.Equal(t, []Kind{KindNoop, KindConfigChanged, KindInputSwPress, KindInputSwRelease}, kindsOf(msgs))
	_, ok := c.GetNonBlocking()
	require.False(t, ok)
}

func TestPostStamps(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Set(1234567)
	c := env.core(Core1)
	require.NoError(t, c.Post(NewMessage(KindNoop)))
	require.NoError(t, c.Post(NewMessage(KindNoop)))
	msgs := env.drain(Core1)
	require.Len(t, msgs, 2)
	require.Equal(t, uint32(1234), msgs[0].PostedMS)
	require.True(t, msgs[1].Seq > msgs[0].Seq)
}

func TestGetBlocking(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core1)

	result := make(chan Message, 1)
	go func() {
		msg, err := c.Get(context.Background())
		if err == nil {
			result <- msg
		}
	}()
	// a Low queue post wakes the consumer blocked on High
	require.Equal(t, uint16(0x02), env.sys.PostToBothNonBlocking(NewMessageWithPriority(KindHousekeeping, PriorityLow))&0x02)
	select {
	case msg := <-result:
		require.Equal(t, KindHousekeeping, msg.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked consumer not woken")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx)
	require.Equal(t, context.Canceled, err)
}

func TestPostNonBlockingFull(t *testing.T) {
	env := newTestEnv(t)
	c := env.core(Core1)
	capacity := env.sys.Config().Queues[Core1].Normal
	for i := 0; i < capacity; i++ {
		require.True(t, c.PostNonBlocking(NewMessage(KindNoop)))
	}
	require.Equal(t, capacity, c.QueueLevels().Normal)
	require.False(t, c.PostNonBlocking(NewMessage(KindNoop)))
	require.Equal(t, capacity, c.QueueLevels().Normal)
	require.Zero(t, env.fatal.count())
}

func TestPostFull(t *testing.T) {
	t.Run("fatal", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.core(Core0)
		// first post goes to High, then fill Low
		require.NoError(t, c.Post(NewMessage(KindNoop)))
		for i := 0; i < env.sys.Config().Queues[Core0].Low; i++ {
			require.NoError(t, c.Post(NewMessageWithPriority(KindNoop, PriorityLow)))
		}
		err := c.Post(NewMessageWithPriority(KindNoop, PriorityLow))
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrQueueFull))
		require.Equal(t, 1, env.fatal.count())
		require.Equal(t, "queue add", env.fatal.last().Op)
		require.Equal(t, uint32(1), c.PostErrors())
	})
	t.Run("drop", func(t *testing.T) {
		env := newTestEnv(t, func(conf *Config) { conf.NoQueueAddPanic = true })
		c := env.core(Core0)
		require.NoError(t, c.Post(NewMessage(KindNoop)))
		for i := 0; i < env.sys.Config().Queues[Core0].Low; i++ {
			require.NoError(t, c.Post(NewMessageWithPriority(KindNoop, PriorityLow)))
		}
		err := c.Post(NewMessageWithPriority(KindNoop, PriorityLow))
		require.True(t, errors.Is(err, ErrQueueFull))
		require.Zero(t, env.fatal.count())
		require.Equal(t, uint32(1), c.PostErrors())
	})
}

func TestPostPayloadMismatch(t *testing.T) {
	env := newTestEnv(t)
	err := env.core(Core0).Post(NewMessage(KindRotaryChange).WithData(Text("x")))
	require.True(t, errors.Is(err, ErrPayloadShape))
	require.Equal(t, 1, env.fatal.count())
	require.False(t, env.core(Core0).PostNonBlocking(NewMessage(KindRotaryChange).WithData(Text("x"))))
	require.Equal(t, 2, env.fatal.count())
	require.Zero(t, env.core(Core0).QueueLevels().Total())
}

func TestConcurrentPosts(t *testing.T) {
	env := newTestEnv(t, func(conf *Config) {
		conf.Queues[Core0] = QueueConfig{High: 256, Normal: 256, Low: 256}
	})
	c := env.core(Core0)
	const producers, perProducer = 4, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				require.NoError(t, c.Post(NewMessageWithPriority(KindExec, Priority(i%3)).WithData(Status(p*perProducer+i))))
			}
		}(p)
	}
	seen := make(map[Status]bool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for len(seen) < producers*perProducer {
		msg, err := c.Get(ctx)
		require.NoError(t, err)
		v, ok := PayloadAs[Status](&msg)
		require.True(t, ok)
		require.False(t, seen[v])
		seen[v] = true
	}
	wg.Wait()
	_, ok := c.GetNonBlocking()
	require.False(t, ok)
}
