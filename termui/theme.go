// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the client's color palette. Colors are ANSI 256-color
// codes; video pixels use true color and are degraded by lipgloss to
// whatever the terminal supports.
type Theme struct {
	// Chat text.
	SelfText    lipgloss.Color
	OtherText   lipgloss.Color
	PendingText lipgloss.Color

	// Status bar.
	Connected    lipgloss.Color
	Disconnected lipgloss.Color
	Warning      lipgloss.Color
	HelpText     lipgloss.Color

	// Chrome.
	BorderColor lipgloss.Color
	ThumbColor  lipgloss.Color
	Prompt      lipgloss.Color
	VideoLabel  lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	SelfText:    lipgloss.Color("117"), // light blue
	OtherText:   lipgloss.Color("252"),
	PendingText: lipgloss.Color("243"),

	Connected:    lipgloss.Color("114"), // green
	Disconnected: lipgloss.Color("196"), // red
	Warning:      lipgloss.Color("220"), // amber
	HelpText:     lipgloss.Color("241"),

	BorderColor: lipgloss.Color("240"),
	ThumbColor:  lipgloss.Color("220"),
	Prompt:      lipgloss.Color("117"),
	VideoLabel:  lipgloss.Color("245"),
}

// ColorProfile maps a configured color mode to a termenv profile.
// "auto" reports ok=false: keep whatever lipgloss detected.
func ColorProfile(name string) (profile termenv.Profile, ok bool, err error) {
	switch name {
	case "auto", "":
		return 0, false, nil
	case "truecolor":
		return termenv.TrueColor, true, nil
	case "ansi256":
		return termenv.ANSI256, true, nil
	case "ansi":
		return termenv.ANSI, true, nil
	case "none":
		return termenv.Ascii, true, nil
	default:
		return 0, false, fmt.Errorf("unknown color mode %q (want auto, truecolor, ansi256, ansi or none)", name)
	}
}
