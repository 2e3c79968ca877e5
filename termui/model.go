// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/huddle/session"
)

// Publisher accepts session events. *eventbus.Bus[session.Event]
// implements it.
type Publisher interface {
	Publish(ctx context.Context, event session.Event) error
}

// Options configures a Model.
type Options struct {
	// Address is the relay address shown in the status bar.
	Address string

	// Video reserves the video strip on terminals tall enough for it.
	Video bool

	// Keys and Theme default to DefaultKeyMap and DefaultTheme when
	// zero.
	Keys  *KeyMap
	Theme *Theme
}

// Model is the bubbletea model for the client. It owns no session
// state: key presses go out as events, and the screen shows the last
// view the state machine drew.
type Model struct {
	// ctx bounds blocking publishes; cancelling it unblocks Update
	// when the event bus is full.
	ctx       context.Context
	publisher Publisher
	surface   *Surface

	keys    KeyMap
	theme   Theme
	address string
	video   bool

	layout layout
	view   session.View
	drawn  bool

	logSummary  string
	logLevel    slog.Level
	logSequence uint64
}

// NewModel creates the model. Key events are published in the order
// the terminal delivers them, blocking if the bus is full.
func NewModel(ctx context.Context, publisher Publisher, surface *Surface, options Options) Model {
	model := Model{
		ctx:       ctx,
		publisher: publisher,
		surface:   surface,
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
		address:   options.Address,
		video:     options.Video,
	}
	if options.Keys != nil {
		model.keys = *options.Keys
	}
	if options.Theme != nil {
		model.theme = *options.Theme
	}
	return model
}

func (model Model) Init() tea.Cmd {
	return tea.SetWindowTitle("huddle " + model.address)
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
		for _, event := range model.keys.translate(message) {
			if err := model.publisher.Publish(model.ctx, event); err != nil {
				return model, tea.Quit
			}
		}
		return model, nil

	case tea.WindowSizeMsg:
		model.layout = computeLayout(message.Width, message.Height, model.video)
		if err := model.publisher.Publish(model.ctx, model.layout.resizeEvent()); err != nil {
			return model, tea.Quit
		}
		return model, nil

	case redrawMsg:
		if view, ok := model.surface.Latest(); ok {
			model.view = view
			model.drawn = true
		}
		return model, nil

	case logRecordMsg:
		model.logSequence++
		model.logSummary = message.Summary
		model.logLevel = message.Level
		return model, fadeAfter(model.logSequence)

	case logRecordFadeMsg:
		if message.Sequence == model.logSequence {
			model.logSummary = ""
		}
		return model, nil
	}
	return model, nil
}

func (model Model) View() string {
	if model.layout.width == 0 {
		return "connecting to " + model.address + "..."
	}

	sections := make([]string, 0, 4)
	if model.layout.videoRows > 0 {
		sections = append(sections, renderVideoStrip(model.theme, model.view.Videos,
			model.layout.width, model.layout.videoRows))
	}
	sections = append(sections,
		model.renderChat(),
		model.renderStatus(),
		model.renderInput(),
	)
	return strings.Join(sections, "\n")
}

// renderChat draws the chat window and its scrollbar.
func (model Model) renderChat() string {
	selfStyle := lipgloss.NewStyle().Foreground(model.theme.SelfText)
	otherStyle := lipgloss.NewStyle().Foreground(model.theme.OtherText)
	pendingStyle := lipgloss.NewStyle().Foreground(model.theme.PendingText).Italic(true)
	failedStyle := lipgloss.NewStyle().Foreground(model.theme.Disconnected)

	lines := make([]string, 0, model.layout.chatHeight)
	for _, line := range model.view.ChatLines {
		if len(lines) == model.layout.chatHeight {
			break
		}
		text := ansi.Truncate(line.Text, model.layout.chatWidth, "")
		switch {
		case line.Failed:
			lines = append(lines, failedStyle.Render(text))
		case line.Pending:
			lines = append(lines, pendingStyle.Render(text))
		case line.Origin == session.OriginSelf:
			lines = append(lines, selfStyle.Render(text))
		default:
			lines = append(lines, otherStyle.Render(text))
		}
	}
	chat := lipgloss.NewStyle().
		Width(model.layout.chatWidth).
		Height(model.layout.chatHeight).
		Render(strings.Join(lines, "\n"))
	scrollbar := renderScrollbar(model.theme, model.layout.chatHeight,
		model.view.TotalLines, model.layout.chatHeight, model.view.Scroll)
	return lipgloss.JoinHorizontal(lipgloss.Top, chat, scrollbar)
}

// renderStatus draws connection state on the left, the latest log
// record or key help in the middle, and traffic on the right.
func (model Model) renderStatus() string {
	var left string
	switch {
	case !model.drawn:
		left = lipgloss.NewStyle().Foreground(model.theme.Warning).Render("○ connecting")
	case model.view.Connected:
		left = lipgloss.NewStyle().Foreground(model.theme.Connected).Render("● " + model.address)
	default:
		left = lipgloss.NewStyle().Foreground(model.theme.Disconnected).Render("○ " + model.view.Status)
	}

	var middle string
	if model.logSummary != "" {
		color := model.theme.Warning
		if model.logLevel >= slog.LevelError {
			color = model.theme.Disconnected
		}
		middle = lipgloss.NewStyle().Foreground(color).Render(model.logSummary)
	} else {
		middle = lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(model.help())
	}

	right := humanize.Bytes(model.view.BytesReceived) + " received"
	if model.view.Pending > 0 {
		right = fmt.Sprintf("%d sending · %s", model.view.Pending, right)
	}
	right = lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(right)

	width := model.layout.width
	head := ansi.Truncate(left+"  "+middle, max(width-lipgloss.Width(right)-1, 0), "…")
	gap := max(width-lipgloss.Width(head)-lipgloss.Width(right), 1)
	return ansi.Truncate(head+strings.Repeat(" ", gap)+right, width, "")
}

func (model Model) help() string {
	bindings := []key.Binding{model.keys.Send, model.keys.Up, model.keys.PageUp, model.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " · ")
}

// renderInput draws the prompt and the visible part of the input line
// with a reverse-video cursor.
func (model Model) renderInput() string {
	prompt := lipgloss.NewStyle().Foreground(model.theme.Prompt).Render("> ")
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	runes := []rune(model.view.InputLine)
	cursor := min(max(model.view.CursorPos, 0), len(runes))
	before := string(runes[:cursor])
	under, after := " ", ""
	if cursor < len(runes) {
		under = string(runes[cursor])
		after = string(runes[cursor+1:])
	}
	return prompt + before + cursorStyle.Render(under) + after
}
