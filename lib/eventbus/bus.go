// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventbus provides a bounded multi-producer, single-consumer
// queue. The huddle client merges keyboard input, decoded network
// envelopes and redraw ticks into one Bus so the session state machine
// sees a single stream, totally ordered by arrival.
package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Publish and Receive after Close.
var ErrClosed = errors.New("eventbus: closed")

// Bus is a bounded FIFO of events. Any number of goroutines may
// publish; exactly one goroutine should receive.
type Bus[T any] struct {
	events    chan T
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a bus buffering up to capacity events. A capacity below
// one is raised to one.
func New[T any](capacity int) *Bus[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus[T]{
		events: make(chan T, capacity),
		done:   make(chan struct{}),
	}
}

// Publish enqueues event, blocking while the bus is full. Returns
// ctx.Err() if ctx ends first, or ErrClosed once the bus is closed.
func (bus *Bus[T]) Publish(ctx context.Context, event T) error {
	select {
	case <-bus.done:
		return ErrClosed
	default:
	}
	select {
	case bus.events <- event:
		return nil
	case <-bus.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish enqueues event only if there is room, reporting whether
// it did. Producers whose events are interchangeable (redraw ticks)
// use it so a busy consumer sheds them instead of stalling the
// producer.
func (bus *Bus[T]) TryPublish(event T) bool {
	select {
	case <-bus.done:
		return false
	default:
	}
	select {
	case bus.events <- event:
		return true
	default:
		return false
	}
}

// Receive returns the oldest queued event, blocking while the bus is
// empty.
func (bus *Bus[T]) Receive(ctx context.Context) (T, error) {
	select {
	case event := <-bus.events:
		return event, nil
	case <-bus.done:
		var zero T
		return zero, ErrClosed
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len returns the number of queued events.
func (bus *Bus[T]) Len() int {
	return len(bus.events)
}

// Close wakes every blocked Publish and Receive with ErrClosed. Events
// still queued are discarded. Idempotent.
func (bus *Bus[T]) Close() {
	bus.closeOnce.Do(func() { close(bus.done) })
}
