// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/huddle/session"
)

// halfBlock draws two vertically stacked pixels in one cell: the top
// pixel as foreground, the bottom as background.
const halfBlock = "▀"

// minPaneWidth is the narrowest video pane worth drawing.
const minPaneWidth = 4

// renderVideoStrip draws the video slots side by side in a region of
// width x rows cells. The bottom row of each pane is its label. Panes
// keep their frame's aspect ratio and are dropped from the right when
// the width runs out; only the first pane is squeezed to fit.
func renderVideoStrip(theme Theme, videos []session.VideoSlot, width, rows int) string {
	if rows <= 0 || width <= 0 {
		return ""
	}
	faint := lipgloss.NewStyle().Foreground(theme.HelpText)
	if len(videos) == 0 {
		return lipgloss.Place(width, rows, lipgloss.Center, lipgloss.Center, faint.Render("no video"))
	}

	imageRows := rows - 1
	var panes []string
	remaining := width
	for _, slot := range videos {
		if slot.Width <= 0 || slot.Height <= 0 {
			continue
		}
		columns := imageRows * 2 * slot.Width / slot.Height
		if columns > remaining {
			if len(panes) > 0 {
				break
			}
			columns = remaining
		}
		if columns < minPaneWidth {
			break
		}
		panes = append(panes, renderPane(theme, slot, columns, imageRows))
		remaining -= columns + 1
	}
	if len(panes) == 0 {
		return lipgloss.Place(width, rows, lipgloss.Center, lipgloss.Center, faint.Render("video too narrow"))
	}

	strip := lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(panes)...)
	return lipgloss.NewStyle().Width(width).Height(rows).MaxHeight(rows).Render(strip)
}

func joinWithGap(panes []string) []string {
	joined := make([]string, 0, len(panes)*2)
	for index, pane := range panes {
		if index > 0 {
			joined = append(joined, " ")
		}
		joined = append(joined, pane)
	}
	return joined
}

// renderPane draws one frame scaled to columns x imageRows cells,
// followed by its label.
func renderPane(theme Theme, slot session.VideoSlot, columns, imageRows int) string {
	lines := renderFrame(slot, columns, imageRows)
	label := fmt.Sprintf("peer %d", slot.Source)
	if slot.Local {
		label = "you"
	}
	lines = append(lines, lipgloss.NewStyle().
		Foreground(theme.VideoLabel).
		Width(columns).
		MaxWidth(columns).
		Align(lipgloss.Center).
		Render(label))
	return strings.Join(lines, "\n")
}

// renderFrame scales an RGB24 frame to columns x rows cells with
// nearest-neighbor sampling, two pixel rows per cell.
func renderFrame(slot session.VideoSlot, columns, rows int) []string {
	lines := make([]string, rows)
	if len(slot.Pixels) < slot.Width*slot.Height*3 {
		blank := strings.Repeat(" ", columns)
		for index := range lines {
			lines[index] = blank
		}
		return lines
	}

	pixelRows := rows * 2
	var builder strings.Builder
	for row := range rows {
		builder.Reset()
		for column := range columns {
			x := column * slot.Width / columns
			top := sample(slot, x, (row*2)*slot.Height/pixelRows)
			bottom := sample(slot, x, (row*2+1)*slot.Height/pixelRows)
			builder.WriteString(lipgloss.NewStyle().
				Foreground(top).
				Background(bottom).
				Render(halfBlock))
		}
		lines[row] = builder.String()
	}
	return lines
}

func sample(slot session.VideoSlot, x, y int) lipgloss.Color {
	offset := (y*slot.Width + x) * 3
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x",
		slot.Pixels[offset], slot.Pixels[offset+1], slot.Pixels[offset+2]))
}
