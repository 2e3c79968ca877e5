// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logFadeDuration is how long a log record stays in the status bar.
const logFadeDuration = 5 * time.Second

// logRecordMsg carries a log record into the model for the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar record if no newer record
// replaced it. Sequence identifies the record it was scheduled for.
type logRecordFadeMsg struct {
	Sequence uint64
}

// senderRef boxes a Sender so it can live in an atomic.Pointer.
type senderRef struct {
	sender Sender
}

// LogHandler is an slog.Handler that shows records in the status bar.
// The program is attached after construction, since the logger is
// needed before the program exists; records logged before
// [LogHandler.SetProgram] are dropped.
type LogHandler struct {
	program *atomic.Pointer[senderRef]
	level   slog.Leveler
	// attrs are preformatted " key=value" pairs, qualified by the
	// groups open when they were added.
	attrs  string
	groups []string
}

// NewLogHandler returns a handler for records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		program: &atomic.Pointer[senderRef]{},
		level:   level,
	}
}

// SetProgram attaches the program that receives records. Handlers
// derived through WithAttrs and WithGroup share the attachment.
func (handler *LogHandler) SetProgram(program Sender) {
	handler.program.Store(&senderRef{sender: program})
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	ref := handler.program.Load()
	if ref == nil {
		return nil
	}
	// Send blocks until the program reads the message. The record is
	// delivered from a goroutine so logging from inside the program's
	// own update loop cannot deadlock.
	message := logRecordMsg{Summary: handler.summarize(record), Level: record.Level}
	go ref.sender.Send(message)
	return nil
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var builder strings.Builder
	builder.WriteString(handler.attrs)
	for _, attr := range attrs {
		handler.writeAttr(&builder, attr)
	}
	derived := *handler
	derived.attrs = builder.String()
	return &derived
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	derived.groups = append(append([]string(nil), handler.groups...), name)
	return &derived
}

// summarize renders "message key=value ..." on one line.
func (handler *LogHandler) summarize(record slog.Record) string {
	var builder strings.Builder
	builder.WriteString(record.Message)
	builder.WriteString(handler.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		handler.writeAttr(&builder, attr)
		return true
	})
	return strings.ReplaceAll(builder.String(), "\n", " ")
}

func (handler *LogHandler) writeAttr(builder *strings.Builder, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	fmt.Fprintf(builder, " %s%s=%s", prefix, attr.Key, attr.Value.Resolve())
}

// fadeAfter schedules the fade message for a record.
func fadeAfter(sequence uint64) tea.Cmd {
	return tea.Tick(logFadeDuration, func(time.Time) tea.Msg {
		return logRecordFadeMsg{Sequence: sequence}
	})
}
