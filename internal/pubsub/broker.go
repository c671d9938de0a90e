// Package pubsub provides the fan-out between the single snapshot producer
// (the refresh loop) and the per-connection consumers.
package pubsub

import (
	"context"
	"sync"
)

// DefaultBufferSize is the per-subscriber channel buffer.
const DefaultBufferSize = 8

// Broker is a single-producer, multi-consumer fan-out. Publishing never
// blocks: a subscriber whose buffer is full misses that value, which is
// acceptable here because every published snapshot supersedes the previous
// one entirely.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[chan T]struct{}
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a broker with the default subscriber buffer size.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan T]struct{}),
		done:       make(chan struct{}),
		bufferSize: DefaultBufferSize,
	}
}

// Subscribe registers a consumer. The returned channel receives published
// values until ctx is done or the broker shuts down, then is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan T)
		close(ch)
		return ch
	default:
	}

	sub := make(chan T, b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; !ok {
			return // already removed by Shutdown
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish delivers v to every subscriber. Slow subscribers are skipped so
// one consumer can never stall the producer or the other consumers.
//
// The read lock is held across the sends: channels are only closed under the
// write lock (Subscribe's cleanup goroutine and Shutdown), so a subscriber
// cancelling mid-publish cannot close a channel we are about to send on. The
// sends are non-blocking, so the lock is held only briefly.
func (b *Broker[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- v:
		default:
		}
	}
}

// SubscriberCount reports the current number of subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown closes every subscriber channel and rejects new subscriptions.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub)
	}
}
