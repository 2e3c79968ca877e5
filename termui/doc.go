// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package termui is the huddle client's terminal front end, built on
// bubbletea.
//
// It plays two roles around the session state machine. As the
// keyboard producer, [Model.Update] translates key presses and window
// resizes into session events and publishes them on the event bus in
// the order the terminal delivered them. As the render surface,
// [Surface] implements session.Renderer: Draw stores the latest
// session.View and wakes the bubbletea program, which then renders
// that snapshot. Draw never blocks, so the state machine cannot stall
// behind the terminal; bursts of draws collapse into one redraw.
//
// The screen is split, top to bottom, into a video strip (shown when
// the terminal is tall enough), the chat log with a scrollbar, a
// status bar and the input line. The layout depends only on the
// terminal size, so the chat viewport changes only on resize.
// Video is drawn with upper-half-block cells, two pixels per cell.
//
// [LogHandler] routes warnings from the rest of the client into the
// status bar, since stderr belongs to the terminal UI.
package termui
