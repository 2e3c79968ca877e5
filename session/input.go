// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// inputBuffer is the line being composed. cursor indexes runes in
// [0, len(runes)]; offset is the first rune shown when the line is
// wider than the input field.
type inputBuffer struct {
	runes  []rune
	cursor int
	offset int
}

func (input *inputBuffer) insert(r rune) {
	if !unicode.IsGraphic(r) {
		return
	}
	input.runes = append(input.runes, 0)
	copy(input.runes[input.cursor+1:], input.runes[input.cursor:])
	input.runes[input.cursor] = r
	input.cursor++
}

// backspace removes the rune before the cursor.
func (input *inputBuffer) backspace() {
	if input.cursor == 0 {
		return
	}
	input.runes = append(input.runes[:input.cursor-1], input.runes[input.cursor:]...)
	input.cursor--
}

// deleteForward removes the rune at the cursor.
func (input *inputBuffer) deleteForward() {
	if input.cursor >= len(input.runes) {
		return
	}
	input.runes = append(input.runes[:input.cursor], input.runes[input.cursor+1:]...)
}

func (input *inputBuffer) left() {
	if input.cursor > 0 {
		input.cursor--
	}
}

func (input *inputBuffer) right() {
	if input.cursor < len(input.runes) {
		input.cursor++
	}
}

func (input *inputBuffer) home() { input.cursor = 0 }

func (input *inputBuffer) end() { input.cursor = len(input.runes) }

// take returns the composed text and resets the buffer.
func (input *inputBuffer) take() string {
	text := string(input.runes)
	input.runes = input.runes[:0]
	input.cursor = 0
	input.offset = 0
	return text
}

// follow adjusts offset so the cursor cell lies within a field of
// width cells. The cursor cell is the rune under the cursor, or one
// blank cell past the end of the line.
func (input *inputBuffer) follow(width int) {
	width = max(width, 1)
	if input.cursor < input.offset {
		input.offset = input.cursor
	}
	cursorCell := 1
	if input.cursor < len(input.runes) {
		cursorCell = runeCells(input.runes[input.cursor])
	}
	span := cursorCell
	for index := input.offset; index < input.cursor; index++ {
		span += runeCells(input.runes[index])
	}
	for span > width && input.offset < input.cursor {
		span -= runeCells(input.runes[input.offset])
		input.offset++
	}
}

// visible returns the runes from offset that fit in a field of width
// cells, and the cursor's rune index within them.
func (input *inputBuffer) visible(width int) (string, int) {
	width = max(width, 1)
	end, cells := input.offset, 0
	for end < len(input.runes) {
		next := runeCells(input.runes[end])
		if cells+next > width {
			break
		}
		cells += next
		end++
	}
	return string(input.runes[input.offset:end]), input.cursor - input.offset
}

// runeCells is the number of terminal cells r occupies.
func runeCells(r rune) int {
	return ansi.StringWidth(string(r))
}
