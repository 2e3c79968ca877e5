// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source used by the relay and
// the client.
//
// The relay stamps every published item with Clock.Now, and the
// client's redraw ticker is built from Clock.NewTicker. Production
// wiring passes Real(); tests pass Fake() and drive time explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go client.RunTicker(ctx, fake, 50*time.Millisecond, bus)
//	fake.WaitForWaiters(1)
//	fake.Advance(50 * time.Millisecond)
//
// Socket deadlines are not routed through Clock: the kernel compares
// them against wall time, so a fake clock would be meaningless there.
package clock
