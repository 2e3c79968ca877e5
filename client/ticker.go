// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"time"

	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/session"
)

// DefaultTickInterval is the redraw cadence, 20 frames per second.
const DefaultTickInterval = 50 * time.Millisecond

// RunTicker publishes a TickEvent every interval until ctx is
// cancelled. Ticks are interchangeable, so one that finds the bus full
// is dropped.
func RunTicker(ctx context.Context, clk clock.Clock, interval time.Duration, events *eventbus.Bus[session.Event]) error {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			events.TryPublish(session.TickEvent{At: now})
		}
	}
}
