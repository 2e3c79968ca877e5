// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ChatLine is one wrapped row of the chat log.
type ChatLine struct {
	Text    string
	Origin  Origin
	Pending bool
	Failed  bool
}

// pendingStamp replaces the time of entries awaiting their echo.
const pendingStamp = "[--:--]"

// formatEntry renders an entry as a single logical line. Escape
// sequences in the text are removed so a peer cannot drive this
// terminal.
func formatEntry(entry ChatEntry) string {
	stamp := pendingStamp
	if !entry.Pending && !entry.At.IsZero() {
		stamp = entry.At.Format("[15:04]")
	}
	speaker := "peer"
	if entry.Origin == OriginSelf {
		speaker = "you"
	}
	if entry.Failed {
		speaker += " (not sent)"
	}
	text := strings.ReplaceAll(entry.Text, "\t", " ")
	text = strings.Map(func(r rune) rune {
		if (r < ' ' && r != '\n') || r == 0x7f {
			return -1
		}
		return r
	}, ansi.Strip(text))
	return stamp + " " + speaker + ": " + text
}

// wrapEntries wraps every entry to width cells. Words longer than the
// width are broken, so no row is wider than width unless it holds a
// single wide character.
func wrapEntries(entries []ChatEntry, width int) []ChatLine {
	width = max(width, 1)
	lines := make([]ChatLine, 0, len(entries))
	for _, entry := range entries {
		wrapped := ansi.Hardwrap(ansi.Wrap(formatEntry(entry), width, ""), width, false)
		for _, row := range strings.Split(wrapped, "\n") {
			lines = append(lines, ChatLine{
				Text:    strings.TrimRight(row, " "),
				Origin:  entry.Origin,
				Pending: entry.Pending,
				Failed:  entry.Failed,
			})
		}
	}
	return lines
}

// wrap wraps the whole log at the current chat width. The log is
// re-wrapped from scratch every time.
func (state *State) wrap() []ChatLine {
	return wrapEntries(state.entries, state.chatWidth)
}
