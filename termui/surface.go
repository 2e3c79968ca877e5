// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/huddle/session"
)

// redrawMsg tells the model a new view is waiting in the surface.
type redrawMsg struct{}

// Sender delivers messages to a running bubbletea program.
// *tea.Program implements it.
type Sender interface {
	Send(message tea.Msg)
}

// Surface is the session.Renderer backed by the terminal. The state
// machine calls Draw; the bubbletea program reads the stored view when
// Forward wakes it. Any number of draws between two redraws collapse
// into one.
type Surface struct {
	view   atomic.Pointer[session.View]
	signal chan struct{}
}

// NewSurface returns a Surface with no view yet.
func NewSurface() *Surface {
	return &Surface{signal: make(chan struct{}, 1)}
}

// Draw stores the view and signals a redraw. It never blocks.
func (surface *Surface) Draw(view session.View) {
	surface.view.Store(&view)
	select {
	case surface.signal <- struct{}{}:
	default:
	}
}

// Latest returns the most recently drawn view and whether there has
// been one.
func (surface *Surface) Latest() (session.View, bool) {
	view := surface.view.Load()
	if view == nil {
		return session.View{}, false
	}
	return *view, true
}

// Forward sends a redraw message to the program for every pending
// draw signal until ctx is cancelled. It runs in its own goroutine
// because Send blocks while the program is busy.
func (surface *Surface) Forward(ctx context.Context, program Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-surface.signal:
			program.Send(redrawMsg{})
		}
	}
}
