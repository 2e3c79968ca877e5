// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"slices"
	"time"

	"github.com/bureau-foundation/huddle/wire"
)

// Origin says who wrote a chat entry.
type Origin int

const (
	OriginSelf Origin = iota
	OriginOther
)

// String returns "self" or "other".
func (origin Origin) String() string {
	if origin == OriginSelf {
		return "self"
	}
	return "other"
}

// ChatEntry is one line of the chat log. ID is set only for Self
// entries. Pending entries have been sent but not yet echoed, and
// have a zero At. Failed entries were refused before sending and will
// never be echoed.
type ChatEntry struct {
	ID      uint64
	Text    string
	Origin  Origin
	Pending bool
	Failed  bool
	At      time.Time
}

// VideoSlot holds the most recent frame from one source. Local marks
// the slot fed by this client's own echoed frames.
type VideoSlot struct {
	Source   uint32
	Local    bool
	Width    int
	Height   int
	Pixels   []byte
	Revision uint64
}

// Viewport sizes used until the first ResizeEvent.
const (
	defaultChatWidth  = 80
	defaultChatHeight = 20
	defaultInputWidth = 78
)

// State is the client session. It is mutated only through Apply and
// is not safe for concurrent use.
type State struct {
	ids *IDAllocator

	entries []ChatEntry
	// confirmed records every id whose echo has been applied, so a
	// repeated echo is recognised and dropped.
	confirmed map[uint64]struct{}

	videos map[uint32]*VideoSlot

	input inputBuffer

	// scroll is the index of the first visible wrapped line.
	scroll        int
	stickToBottom bool

	chatWidth  int
	chatHeight int
	inputWidth int

	connected        bool
	disconnectReason string
	bytesReceived    uint64
}

// NewState returns an empty, connected session drawing ids from ids.
func NewState(ids *IDAllocator) *State {
	return &State{
		ids:           ids,
		confirmed:     make(map[uint64]struct{}),
		videos:        make(map[uint32]*VideoSlot),
		stickToBottom: true,
		chatWidth:     defaultChatWidth,
		chatHeight:    defaultChatHeight,
		inputWidth:    defaultInputWidth,
		connected:     true,
	}
}

// Apply folds event into the state and returns the envelopes to send
// as a result, in order.
func (state *State) Apply(event Event) []wire.Envelope {
	var effects []wire.Envelope
	switch event := event.(type) {
	case KeyEvent:
		effects = state.applyKey(event)
	case NetworkEvent:
		state.bytesReceived += uint64(max(event.Size, 0))
		state.applyEnvelope(event.Envelope)
	case TickEvent:
		// Only the scroll settle below.
	case ResizeEvent:
		state.chatWidth = max(event.ChatWidth, 1)
		state.chatHeight = max(event.ChatHeight, 1)
		state.inputWidth = max(event.InputWidth, 1)
		state.input.follow(state.inputWidth)
	case SendFailedEvent:
		state.reject(event)
	case DisconnectedEvent:
		state.connected = false
		state.disconnectReason = "connection closed"
		if event.Err != nil {
			state.disconnectReason = event.Err.Error()
		}
	}
	state.settle(len(state.wrap()))
	return effects
}

func (state *State) applyKey(event KeyEvent) []wire.Envelope {
	switch event.Key {
	case KeyRune:
		state.input.insert(event.Rune)
	case KeyBackspace:
		state.input.backspace()
	case KeyDelete:
		state.input.deleteForward()
	case KeyLeft:
		state.input.left()
	case KeyRight:
		state.input.right()
	case KeyHome:
		state.input.home()
	case KeyEnd:
		state.input.end()
	case KeyUp:
		state.scrollBy(-1)
	case KeyDown:
		state.scrollBy(1)
	case KeyPageUp:
		state.scrollBy(-state.chatHeight)
	case KeyPageDown:
		state.scrollBy(state.chatHeight)
	case KeyEnter:
		return state.submit()
	}
	state.input.follow(state.inputWidth)
	return nil
}

// submit turns a non-empty input line into a pending entry and the
// ChatMessage that will confirm it.
func (state *State) submit() []wire.Envelope {
	if len(state.input.runes) == 0 {
		return nil
	}
	text := state.input.take()
	id := state.ids.Next()
	state.entries = append(state.entries, ChatEntry{
		ID:      id,
		Text:    text,
		Origin:  OriginSelf,
		Pending: true,
	})
	return []wire.Envelope{wire.ChatMessage{Text: text, ID: id}}
}

func (state *State) applyEnvelope(envelope wire.Envelope) {
	switch envelope := envelope.(type) {
	case wire.ChatFromOther:
		state.entries = append(state.entries, ChatEntry{
			Text:   envelope.Text,
			Origin: OriginOther,
			At:     sentAt(envelope.SentAt),
		})
	case wire.ChatEcho:
		state.confirm(envelope)
	case wire.VideoFrame:
		state.storeFrame(envelope)
	}
}

// confirm replaces the pending entry for the echo's id with a
// confirmed one at the end of the log.
func (state *State) confirm(echo wire.ChatEcho) {
	index := slices.IndexFunc(state.entries, func(entry ChatEntry) bool {
		return entry.Pending && entry.Origin == OriginSelf && entry.ID == echo.ID
	})
	if index >= 0 {
		state.entries = slices.Delete(state.entries, index, index+1)
	} else if _, seen := state.confirmed[echo.ID]; seen {
		return
	}
	state.confirmed[echo.ID] = struct{}{}
	state.entries = append(state.entries, ChatEntry{
		ID:     echo.ID,
		Text:   echo.Text,
		Origin: OriginSelf,
		At:     sentAt(echo.SentAt),
	})
}

// reject marks the pending entry of a refused ChatMessage as failed.
func (state *State) reject(event SendFailedEvent) {
	message, ok := event.Envelope.(wire.ChatMessage)
	if !ok {
		return
	}
	index := slices.IndexFunc(state.entries, func(entry ChatEntry) bool {
		return entry.Pending && entry.Origin == OriginSelf && entry.ID == message.ID
	})
	if index < 0 {
		return
	}
	state.entries[index].Pending = false
	state.entries[index].Failed = true
}

// storeFrame overwrites the slot for the frame's source. Frames that
// arrive still compressed are decoded here; undecodable ones are
// dropped and the slot keeps its previous frame.
func (state *State) storeFrame(frame wire.VideoFrame) {
	pixels, err := frame.Pixels()
	if err != nil {
		return
	}
	slot, ok := state.videos[frame.Source]
	if !ok {
		slot = &VideoSlot{Source: frame.Source}
		state.videos[frame.Source] = slot
	}
	slot.Local = frame.Echo
	slot.Width = int(frame.Width)
	slot.Height = int(frame.Height)
	slot.Pixels = pixels
	slot.Revision++
}

func sentAt(unixMilli int64) time.Time {
	if unixMilli == 0 {
		return time.Time{}
	}
	return time.UnixMilli(unixMilli)
}
