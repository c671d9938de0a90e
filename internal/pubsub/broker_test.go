package pubsub

import (
	"context"
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	panic("unreachable")
}

func TestBrokerPublishSubscribe(t *testing.T) {
	t.Run("single subscriber receives values", func(t *testing.T) {
		b := NewBroker[string]()
		defer b.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub := b.Subscribe(ctx)
		b.Publish("hello")

		if got := recv(t, sub); got != "hello" {
			t.Errorf("got %q, want hello", got)
		}
	})

	t.Run("every subscriber receives, in publish order", func(t *testing.T) {
		b := NewBroker[int]()
		defer b.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		subs := []<-chan int{b.Subscribe(ctx), b.Subscribe(ctx), b.Subscribe(ctx)}

		b.Publish(1)
		b.Publish(2)

		for i, sub := range subs {
			if got := recv(t, sub); got != 1 {
				t.Errorf("subscriber %d first value = %d, want 1", i, got)
			}
			if got := recv(t, sub); got != 2 {
				t.Errorf("subscriber %d second value = %d, want 2", i, got)
			}
		}
	})

	t.Run("a full subscriber does not block the others", func(t *testing.T) {
		b := NewBroker[int]()
		defer b.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stuck := b.Subscribe(ctx)
		healthy := b.Subscribe(ctx)

		// Never drained: overflow its buffer entirely.
		for i := 0; i < DefaultBufferSize+5; i++ {
			b.Publish(i)
		}
		_ = stuck

		// The healthy subscriber still saw the first buffered values and
		// the broker is still responsive.
		if got := recv(t, healthy); got != 0 {
			t.Errorf("healthy subscriber first value = %d, want 0", got)
		}
	})
}

func TestBrokerUnsubscribeOnContextCancel(t *testing.T) {
	b := NewBroker[int]()
	defer b.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)

	cancel()

	// Channel closes once the cleanup goroutine runs.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				if n := b.SubscriberCount(); n != 0 {
					t.Fatalf("SubscriberCount = %d, want 0", n)
				}
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed")
		}
	}
}

func TestBrokerPublishDuringUnsubscribe(t *testing.T) {
	// A subscriber dropping out mid-publish must never panic the publisher:
	// the channel close races the fan-out sends unless the two are serialized
	// on the broker lock.
	b := NewBroker[int]()
	defer b.Shutdown()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			b.Subscribe(ctx)
			cancel()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			for i := 0; i < 50; i++ {
				b.Publish(i)
			}
		}
	}
}

func TestBrokerShutdown(t *testing.T) {
	b := NewBroker[int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx)
	b.Shutdown()

	if _, ok := <-sub; ok {
		t.Error("expected closed channel after shutdown")
	}

	// Publishing and subscribing after shutdown are no-ops.
	b.Publish(1)
	late := b.Subscribe(ctx)
	if _, ok := <-late; ok {
		t.Error("expected closed channel for post-shutdown subscription")
	}
}
