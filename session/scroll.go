// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

// maxScroll is the largest valid scroll index for totalLines wrapped
// lines.
func (state *State) maxScroll(totalLines int) int {
	return max(0, totalLines-state.chatHeight)
}

// scrollBy moves the scroll index by delta lines. Moving up always
// leaves stick-to-bottom mode; moving down onto the last page
// re-enters it.
func (state *State) scrollBy(delta int) {
	limit := state.maxScroll(len(state.wrap()))
	state.scroll = min(max(state.scroll+delta, 0), limit)
	if delta < 0 {
		state.stickToBottom = false
	} else if state.scroll == limit {
		state.stickToBottom = true
	}
}

// settle clamps the scroll index and, in stick-to-bottom mode, pins
// it to the last page.
func (state *State) settle(totalLines int) {
	limit := state.maxScroll(totalLines)
	if state.stickToBottom {
		state.scroll = limit
		return
	}
	state.scroll = min(max(state.scroll, 0), limit)
}
