// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session is the huddle client's event-reconciliation engine.
//
// Keyboard input, decoded network envelopes, redraw ticks and
// terminal resizes all arrive as [Event] values on one
// [eventbus.Bus]. A single [Machine] goroutine consumes them in
// arrival order and is the only code that mutates [State]. That
// arrival order, not any timestamp, is what the client treats as
// happened-before.
//
// [State.Apply] is a pure reducer. It returns the envelopes the event
// produced (a submitted chat line), and the Machine hands them to the
// [Outbox] before reading the next event, so a message is always
// queued for sending before its echo can be observed. After every
// event the Machine passes a [View] snapshot to the [Renderer].
//
// The chat log is append-only in arrival order. A submitted line is
// appended as pending under a fresh id from the injected
// [IDAllocator]; when the relay's echo for that id arrives the
// pending entry is removed and a confirmed entry appended at the end,
// so the log shows lines in the order this client observed them
// confirmed. Video frames land in one slot per source index,
// last-write-wins.
//
// The log is re-wrapped to the viewport width on every render. While
// stick-to-bottom is on, the scroll position follows the newest line;
// scrolling up turns it off and scrolling back down to the end turns
// it on again.
package session
