// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package broadcast implements a bounded, lossy fan-out channel: many
// publishers, many independent subscribers, every subscriber sees
// every item unless it falls too far behind.
//
// Items live in one shared ring of fixed capacity. A publish writes
// the next slot and advances a monotonically increasing sequence
// number; it never blocks and never fails. Each subscription keeps its
// own cursor into that sequence. When a subscriber is more than
// capacity items behind, the items it missed have already been
// overwritten: its next Receive skips to the oldest retained item and
// reports how many were lost. Falling behind therefore shows up as a
// gap, never as back-pressure on publishers.
//
// A subscription only sees items published after Subscribe returns.
package broadcast
