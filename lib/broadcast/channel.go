// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Receive once the channel has been closed
// and the subscription has consumed everything still retained, or
// after the subscription itself was closed.
var ErrClosed = errors.New("broadcast: closed")

// Channel is a fan-out channel holding at most capacity items.
// All methods are safe for concurrent use.
type Channel[T any] struct {
	mutex    sync.Mutex
	slots    []T
	capacity uint64
	// written is the sequence number of the next item to publish. The
	// ring holds sequence numbers [written - retained, written), where
	// retained = min(written, capacity).
	written uint64
	// wake is closed and replaced on every publish and on Close, waking
	// all subscribers blocked in Receive.
	wake        chan struct{}
	closed      bool
	subscribers int
}

// New creates a channel retaining the most recent capacity items.
// Panics if capacity < 1.
func New[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		panic("broadcast: capacity must be at least 1")
	}
	return &Channel[T]{
		slots:    make([]T, capacity),
		capacity: uint64(capacity),
		wake:     make(chan struct{}),
	}
}

// Publish appends item, overwriting the oldest retained item when the
// ring is full. Returns the number of live subscriptions at the time
// of the publish. Publishing to a closed channel is a no-op that
// returns 0.
func (channel *Channel[T]) Publish(item T) int {
	channel.mutex.Lock()
	defer channel.mutex.Unlock()

	if channel.closed {
		return 0
	}
	channel.slots[channel.written%channel.capacity] = item
	channel.written++
	close(channel.wake)
	channel.wake = make(chan struct{})
	return channel.subscribers
}

// Subscribe registers a new subscription positioned at the current end
// of the stream.
func (channel *Channel[T]) Subscribe() *Subscription[T] {
	channel.mutex.Lock()
	defer channel.mutex.Unlock()

	channel.subscribers++
	return &Subscription[T]{channel: channel, cursor: channel.written}
}

// Subscribers returns the number of live subscriptions.
func (channel *Channel[T]) Subscribers() int {
	channel.mutex.Lock()
	defer channel.mutex.Unlock()
	return channel.subscribers
}

// Close stops the channel. Subscribers drain what is retained and then
// receive ErrClosed. Close is idempotent.
func (channel *Channel[T]) Close() {
	channel.mutex.Lock()
	defer channel.mutex.Unlock()

	if channel.closed {
		return
	}
	channel.closed = true
	close(channel.wake)
}

// oldestLocked returns the sequence number of the oldest retained item.
func (channel *Channel[T]) oldestLocked() uint64 {
	if channel.written <= channel.capacity {
		return 0
	}
	return channel.written - channel.capacity
}

// Subscription is one reader's position in a Channel. A Subscription
// must be used by a single goroutine.
type Subscription[T any] struct {
	channel *Channel[T]
	cursor  uint64
	closed  bool
}

// Receive blocks until the next item is available and returns it.
// missed is the number of items that were overwritten before this
// subscription could read them; it is non-zero only on the first
// Receive after falling behind. Returns ctx.Err() if ctx ends first,
// or ErrClosed.
func (subscription *Subscription[T]) Receive(ctx context.Context) (item T, missed uint64, err error) {
	channel := subscription.channel
	for {
		channel.mutex.Lock()
		if subscription.closed {
			channel.mutex.Unlock()
			return item, 0, ErrClosed
		}
		if oldest := channel.oldestLocked(); subscription.cursor < oldest {
			missed = oldest - subscription.cursor
			subscription.cursor = oldest
		}
		if subscription.cursor < channel.written {
			item = channel.slots[subscription.cursor%channel.capacity]
			subscription.cursor++
			channel.mutex.Unlock()
			return item, missed, nil
		}
		if channel.closed {
			channel.mutex.Unlock()
			return item, missed, ErrClosed
		}
		wake := channel.wake
		channel.mutex.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return item, missed, ctx.Err()
		}
	}
}

// Close deregisters the subscription. Idempotent.
func (subscription *Subscription[T]) Close() {
	channel := subscription.channel
	channel.mutex.Lock()
	defer channel.mutex.Unlock()

	if subscription.closed {
		return
	}
	subscription.closed = true
	channel.subscribers--
}
