// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// Safe for concurrent use.
type FakeClock struct {
	mutex   sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	changed *sync.Cond
}

// fakeWaiter is a pending After channel or ticker.
type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
	// interval is non-zero for tickers, which are rescheduled after
	// each fire instead of being removed.
	interval time.Duration
	stopped  bool
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mutex)
	return clock
}

// Now returns the fake current time.
func (clock *FakeClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.current
}

// After registers a one-shot waiter.
func (clock *FakeClock) After(d time.Duration) <-chan time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- clock.current
		return channel
	}
	clock.addLocked(&fakeWaiter{deadline: clock.current.Add(d), channel: channel})
	return channel
}

// NewTicker registers a periodic waiter.
func (clock *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	clock.mutex.Lock()
	defer clock.mutex.Unlock()

	channel := make(chan time.Time, 1)
	waiter := &fakeWaiter{deadline: clock.current.Add(d), channel: channel, interval: d}
	clock.addLocked(waiter)
	return &Ticker{
		C: channel,
		stop: func() {
			clock.mutex.Lock()
			defer clock.mutex.Unlock()
			waiter.stopped = true
			clock.changed.Broadcast()
		},
	}
}

func (clock *FakeClock) addLocked(waiter *fakeWaiter) {
	clock.waiters = append(clock.waiters, waiter)
	clock.changed.Broadcast()
}

// Advance moves time forward by d and fires every waiter whose
// deadline is reached, in deadline order. A ticker spanning several
// intervals fires once per interval; sends never block, so ticks that
// find a full channel are dropped exactly as with time.Ticker.
func (clock *FakeClock) Advance(d time.Duration) {
	clock.mutex.Lock()
	clock.current = clock.current.Add(d)
	target := clock.current
	clock.mutex.Unlock()

	for {
		due := clock.collectDue(target)
		if len(due) == 0 {
			return
		}
		for _, waiter := range due {
			select {
			case waiter.channel <- target:
			default:
			}
		}
	}
}

// collectDue removes expired one-shot waiters, reschedules tickers,
// and returns everything that should fire now.
func (clock *FakeClock) collectDue(target time.Time) []*fakeWaiter {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()

	var due, remaining []*fakeWaiter
	for _, waiter := range clock.waiters {
		switch {
		case waiter.stopped:
		case !waiter.deadline.After(target):
			due = append(due, waiter)
		default:
			remaining = append(remaining, waiter)
		}
	}
	slices.SortFunc(due, func(a, b *fakeWaiter) int {
		return a.deadline.Compare(b.deadline)
	})
	for _, waiter := range due {
		if waiter.interval > 0 {
			waiter.deadline = waiter.deadline.Add(waiter.interval)
			remaining = append(remaining, waiter)
		}
	}
	clock.waiters = remaining
	return due
}

// WaitForWaiters blocks until at least n After channels or tickers are
// pending. Call it before Advance so a goroutine has registered its
// timer before time moves.
func (clock *FakeClock) WaitForWaiters(n int) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	for clock.pendingLocked() < n {
		clock.changed.Wait()
	}
}

// Pending returns the number of registered, unstopped waiters.
func (clock *FakeClock) Pending() int {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.pendingLocked()
}

func (clock *FakeClock) pendingLocked() int {
	count := 0
	for _, waiter := range clock.waiters {
		if !waiter.stopped {
			count++
		}
	}
	return count
}
