// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import "github.com/bureau-foundation/huddle/session"

// Screen geometry constants.
const (
	// minVideoTerminalHeight is the smallest terminal height that gets
	// a video strip. Below it every row goes to chat.
	minVideoTerminalHeight = 16

	// promptWidth is the width of the "> " input prompt.
	promptWidth = 2

	// scrollbarWidth is the column reserved right of the chat log.
	scrollbarWidth = 1

	// statusRows and inputRows are fixed single rows.
	statusRows = 1
	inputRows  = 1
)

// layout is the division of the terminal into regions, in cells.
type layout struct {
	width  int
	height int

	videoRows  int
	chatWidth  int
	chatHeight int
	inputWidth int
}

// computeLayout divides a width x height terminal. The video strip
// takes two fifths of the height when video is shown and the terminal
// is tall enough. The input field leaves its last column free so a
// cursor at the end of the text stays on screen.
func computeLayout(width, height int, video bool) layout {
	result := layout{width: width, height: height}
	if video && height >= minVideoTerminalHeight {
		result.videoRows = height * 2 / 5
	}
	result.chatHeight = max(height-result.videoRows-statusRows-inputRows, 1)
	result.chatWidth = max(width-scrollbarWidth, 1)
	result.inputWidth = max(width-promptWidth-1, 1)
	return result
}

// resizeEvent is the session event announcing this layout.
func (l layout) resizeEvent() session.ResizeEvent {
	return session.ResizeEvent{
		ChatWidth:  l.chatWidth,
		ChatHeight: l.chatHeight,
		InputWidth: l.inputWidth,
	}
}
