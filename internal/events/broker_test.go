package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event[T]{}
}

func TestBroker(t *testing.T) {
	t.Run("delivers to subscribers", func(t *testing.T) {
		b := NewBroker[string]()
		defer b.Shutdown()

		ch := b.Subscribe(context.Background())
		b.Publish(InputChanged, "hello")

		ev := receive(t, ch)
		assert.Equal(t, InputChanged, ev.Type)
		assert.Equal(t, "hello", ev.Payload)
		assert.NotEmpty(t, ev.ID)
	})

	t.Run("filters by type", func(t *testing.T) {
		b := NewBroker[int]()
		defer b.Shutdown()

		ch := b.Subscribe(context.Background(), OfType(ErrorChanged))
		b.Publish(InputChanged, 1)
		b.Publish(ErrorChanged, 2)

		ev := receive(t, ch)
		assert.Equal(t, 2, ev.Payload)
	})

	t.Run("closes channel on context cancel", func(t *testing.T) {
		b := NewBroker[int]()
		defer b.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		ch := b.Subscribe(ctx)
		cancel()

		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
	})

	t.Run("does not block on full subscriber", func(t *testing.T) {
		b := NewSizedBroker[int](1, 10)
		defer b.Shutdown()

		_ = b.Subscribe(context.Background())
		for i := 0; i < 5; i++ {
			b.Publish(StatusChanged, i)
		}
		assert.Len(t, b.Recent(), 5)
	})

	t.Run("history is bounded", func(t *testing.T) {
		b := NewSizedBroker[int](4, 3)
		for i := 0; i < 10; i++ {
			b.Publish(StatusChanged, i)
		}
		history := b.Recent()
		require.Len(t, history, 3)
		assert.Equal(t, 9, history[2].Payload)
	})

	t.Run("shutdown is idempotent", func(t *testing.T) {
		b := NewBroker[int]()
		ch := b.Subscribe(context.Background())
		b.Shutdown()
		b.Shutdown()

		_, ok := <-ch
		assert.False(t, ok)
		assert.True(t, b.Closed())

		b.Publish(StatusChanged, 1)
		assert.Empty(t, b.Recent())
	})

	t.Run("recent applies filters", func(t *testing.T) {
		b := NewBroker[string]()
		defer b.Shutdown()

		b.Publish(InputChanged, "a")
		b.Publish(MicChanged, "b")
		b.Publish(InputChanged, "c")

		got := b.Recent(OfType(InputChanged))
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[1].Payload)
	})

	t.Run("counts open subscriptions", func(t *testing.T) {
		b := NewBroker[int]()
		defer b.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		ch := b.Subscribe(ctx)
		_ = b.Subscribe(context.Background())
		assert.Equal(t, 2, b.Subscribers())

		cancel()
		for range ch {
		}
		assert.Equal(t, 1, b.Subscribers())
	})
}
