// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/bureau-foundation/huddle/wire"
)

// Event is anything the Machine consumes. The set is closed.
type Event interface {
	event()
}

// Key identifies a keyboard action.
type Key int

const (
	// KeyRune inserts KeyEvent.Rune at the cursor.
	KeyRune Key = iota
	KeyBackspace
	KeyDelete
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
)

// KeyEvent is one keypress from the terminal.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// NetworkEvent is one envelope decoded by the network bridge. Size is
// the frame's length on the wire.
type NetworkEvent struct {
	Envelope wire.Envelope
	Size     int
}

// TickEvent is a redraw tick.
type TickEvent struct {
	At time.Time
}

// ResizeEvent carries new viewport dimensions in terminal cells.
type ResizeEvent struct {
	ChatWidth  int
	ChatHeight int
	InputWidth int
}

// DisconnectedEvent reports that the connection to the relay ended.
// The network bridge publishes it at most once.
type DisconnectedEvent struct {
	Err error
}

// SendFailedEvent reports that the outbox refused an envelope outright,
// such as a chat line too large for the frame limit. The Machine
// applies it directly after the refused Enqueue.
type SendFailedEvent struct {
	Envelope wire.Envelope
	Err      error
}

func (KeyEvent) event()          {}
func (NetworkEvent) event()      {}
func (TickEvent) event()         {}
func (ResizeEvent) event()       {}
func (DisconnectedEvent) event() {}
func (SendFailedEvent) event()   {}
