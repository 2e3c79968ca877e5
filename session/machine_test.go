// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/lib/testutil"
	"github.com/bureau-foundation/huddle/wire"
)

// recorder is both Outbox and Renderer, logging calls in order.
type recorder struct {
	mutex      sync.Mutex
	calls      []string
	enqueueErr error
	views      chan View
}

func newRecorder() *recorder {
	return &recorder{views: make(chan View, 64)}
}

func (r *recorder) Enqueue(ctx context.Context, envelope wire.Envelope) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("enqueue %+v", envelope))
	return r.enqueueErr
}

func (r *recorder) Draw(view View) {
	r.mutex.Lock()
	r.calls = append(r.calls, "draw")
	r.mutex.Unlock()
	r.views <- view
}

func (r *recorder) history() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.calls...)
}

func startMachine(t *testing.T, outboxErr error) (*eventbus.Bus[Event], *recorder, func() error) {
	t.Helper()
	bus := eventbus.New[Event](16)
	recorder := newRecorder()
	recorder.enqueueErr = outboxErr
	machine := NewMachine(NewState(NewIDAllocator()), bus, recorder, recorder, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- machine.Run(ctx) }()
	stop := sync.OnceValue(func() error {
		cancel()
		return testutil.RequireReceive(t, done, 5*time.Second, "Run did not return")
	})
	t.Cleanup(func() { stop() })

	testutil.RequireReceive(t, recorder.views, 5*time.Second, "initial draw")
	return bus, recorder, stop
}

func publish(t *testing.T, bus *eventbus.Bus[Event], events ...Event) {
	t.Helper()
	for _, event := range events {
		if err := bus.Publish(context.Background(), event); err != nil {
			t.Fatalf("Publish(%T): %v", event, err)
		}
	}
}

func TestMachineEnqueuesBeforeNextEvent(t *testing.T) {
	t.Parallel()
	bus, recorder, stop := startMachine(t, nil)

	publish(t, bus,
		KeyEvent{Key: KeyRune, Rune: 'h'},
		KeyEvent{Key: KeyRune, Rune: 'i'},
		KeyEvent{Key: KeyEnter},
		NetworkEvent{Envelope: wire.ChatEcho{Text: "hi", ID: 1}},
	)
	var last View
	for range 4 {
		last = testutil.RequireReceive(t, recorder.views, 5*time.Second, "draw after event")
	}
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"draw", // initial
		"draw",
		"draw",
		"enqueue {Text:hi ID:1}",
		"draw",
		"draw",
	}
	if diff := cmp.Diff(want, recorder.history()); diff != "" {
		t.Fatalf("call order (-want +got):\n%s", diff)
	}
	if last.Pending != 0 || len(last.ChatLines) != 1 || last.ChatLines[0].Pending {
		t.Fatalf("final view = %+v, want one confirmed line", last)
	}
}

func TestMachineSurvivesEnqueueFailure(t *testing.T) {
	t.Parallel()
	bus, recorder, _ := startMachine(t, wire.ErrConnectionClosed)

	publish(t, bus,
		DisconnectedEvent{Err: wire.ErrConnectionClosed},
		KeyEvent{Key: KeyRune, Rune: 'x'},
		KeyEvent{Key: KeyEnter},
		KeyEvent{Key: KeyRune, Rune: 'y'},
	)
	var last View
	for range 4 {
		last = testutil.RequireReceive(t, recorder.views, 5*time.Second, "draw after event")
	}
	if last.Connected || last.Pending != 1 || last.InputLine != "y" {
		t.Fatalf("final view: connected=%v pending=%d input=%q", last.Connected, last.Pending, last.InputLine)
	}
}

func TestMachineMarksOversizedMessageFailed(t *testing.T) {
	t.Parallel()
	bus, recorder, _ := startMachine(t, fmt.Errorf("%w: 70000 bytes", wire.ErrOversizedFrame))

	publish(t, bus,
		KeyEvent{Key: KeyRune, Rune: 'x'},
		KeyEvent{Key: KeyEnter},
	)
	var last View
	for range 2 {
		last = testutil.RequireReceive(t, recorder.views, 5*time.Second, "draw after event")
	}
	if !last.Connected || last.Pending != 0 || len(last.ChatLines) != 1 || !last.ChatLines[0].Failed {
		t.Fatalf("final view: connected=%v pending=%d lines=%+v", last.Connected, last.Pending, last.ChatLines)
	}
}

func TestMachineStopsWhenBusCloses(t *testing.T) {
	t.Parallel()
	bus, _, stop := startMachine(t, nil)
	bus.Close()
	if err := stop(); err != nil {
		t.Fatalf("Run after bus close: %v", err)
	}
}
