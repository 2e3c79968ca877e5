// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/huddle/session"
)

// KeyMap defines the client's key bindings. Every printable key not
// bound here is typed into the input line.
type KeyMap struct {
	// Editing.
	Send      key.Binding
	Backspace key.Binding
	Delete    key.Binding

	// Input cursor.
	Left  key.Binding
	Right key.Binding
	Home  key.Binding
	End   key.Binding

	// Chat scrollback.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Letters are never
// bound, since they are always text.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("↵", "send"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace", "ctrl+h"),
	),
	Delete: key.NewBinding(
		key.WithKeys("delete", "ctrl+d"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "ctrl+b"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "ctrl+f"),
	),
	Home: key.NewBinding(
		key.WithKeys("home", "ctrl+a"),
	),
	End: key.NewBinding(
		key.WithKeys("end", "ctrl+e"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑/↓", "scroll"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp/PgDn", "page"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+v"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// translate converts a key press into session key events. Pasted text
// arrives as one message carrying many runes and yields one event per
// rune. Keys with no meaning return nil.
func (keys KeyMap) translate(message tea.KeyMsg) []session.KeyEvent {
	bindings := []struct {
		binding key.Binding
		key     session.Key
	}{
		{keys.Send, session.KeyEnter},
		{keys.Backspace, session.KeyBackspace},
		{keys.Delete, session.KeyDelete},
		{keys.Left, session.KeyLeft},
		{keys.Right, session.KeyRight},
		{keys.Home, session.KeyHome},
		{keys.End, session.KeyEnd},
		{keys.Up, session.KeyUp},
		{keys.Down, session.KeyDown},
		{keys.PageUp, session.KeyPageUp},
		{keys.PageDown, session.KeyPageDown},
	}
	for _, entry := range bindings {
		if key.Matches(message, entry.binding) {
			return []session.KeyEvent{{Key: entry.key}}
		}
	}

	switch message.Type {
	case tea.KeyRunes:
		events := make([]session.KeyEvent, 0, len(message.Runes))
		for _, r := range message.Runes {
			events = append(events, session.KeyEvent{Key: session.KeyRune, Rune: r})
		}
		return events
	case tea.KeySpace:
		return []session.KeyEvent{{Key: session.KeyRune, Rune: ' '}}
	}
	return nil
}
