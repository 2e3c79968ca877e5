// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"slices"
)

// View is a render snapshot. It shares no mutable memory with State
// except video pixel slices, which State replaces rather than
// modifies.
type View struct {
	// ChatLines is the visible window of the wrapped log, at most
	// ChatHeight rows.
	ChatLines []ChatLine
	// TotalLines is the length of the wrapped log, for scrollbars.
	TotalLines    int
	Scroll        int
	StickToBottom bool

	// Videos lists the local preview first, then remote sources in
	// ascending order.
	Videos []VideoSlot

	// InputLine is the visible part of the input buffer, at most the
	// input width in cells; CursorPos is the cursor's rune index
	// within it.
	InputLine string
	CursorPos int

	Connected     bool
	Status        string
	Pending       int
	BytesReceived uint64
}

// View wraps the log at the current width and returns the snapshot to
// draw.
func (state *State) View() View {
	lines := state.wrap()
	state.settle(len(lines))
	end := min(state.scroll+state.chatHeight, len(lines))

	view := View{
		ChatLines:     slices.Clone(lines[state.scroll:end]),
		TotalLines:    len(lines),
		Scroll:        state.scroll,
		StickToBottom: state.stickToBottom,
		Connected:     state.connected,
		BytesReceived: state.bytesReceived,
	}
	view.InputLine, view.CursorPos = state.input.visible(state.inputWidth)
	if !state.connected {
		view.Status = "disconnected: " + state.disconnectReason
	}
	for _, entry := range state.entries {
		if entry.Pending {
			view.Pending++
		}
	}

	view.Videos = make([]VideoSlot, 0, len(state.videos))
	for _, slot := range state.videos {
		view.Videos = append(view.Videos, *slot)
	}
	slices.SortFunc(view.Videos, func(a, b VideoSlot) int {
		switch {
		case a.Local != b.Local:
			if a.Local {
				return -1
			}
			return 1
		case a.Source < b.Source:
			return -1
		case a.Source > b.Source:
			return 1
		}
		return 0
	})
	return view
}

// Entries returns a copy of the chat log.
func (state *State) Entries() []ChatEntry {
	return slices.Clone(state.entries)
}
