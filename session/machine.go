// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/wire"
)

// Outbox accepts envelopes for sending. The network bridge implements
// it; Enqueue may block for back-pressure.
type Outbox interface {
	Enqueue(ctx context.Context, envelope wire.Envelope) error
}

// Renderer draws a View. Draw is called from the Machine goroutine
// after every event and must not block on that goroutine's progress.
type Renderer interface {
	Draw(view View)
}

// Machine drives a State from an event bus.
type Machine struct {
	state    *State
	events   *eventbus.Bus[Event]
	outbox   Outbox
	renderer Renderer
	logger   *slog.Logger
}

// NewMachine returns a Machine that applies events from events to
// state.
func NewMachine(state *State, events *eventbus.Bus[Event], outbox Outbox, renderer Renderer, logger *slog.Logger) *Machine {
	return &Machine{
		state:    state,
		events:   events,
		outbox:   outbox,
		renderer: renderer,
		logger:   logger,
	}
}

// Run draws the initial view, then processes events one at a time
// until ctx is cancelled or the bus is closed. Each event's outgoing
// envelopes are enqueued before the next event is received.
func (machine *Machine) Run(ctx context.Context) error {
	machine.renderer.Draw(machine.state.View())
	for {
		event, err := machine.events.Receive(ctx)
		if err != nil {
			if errors.Is(err, eventbus.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if disconnected, ok := event.(DisconnectedEvent); ok {
			machine.logger.Warn("disconnected from relay", "error", disconnected.Err)
		}

		for _, envelope := range machine.state.Apply(event) {
			if err := machine.outbox.Enqueue(ctx, envelope); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, wire.ErrOversizedFrame) {
					machine.logger.Warn("message too large to send", "kind", envelope.Kind().String(), "error", err)
					machine.state.Apply(SendFailedEvent{Envelope: envelope, Err: err})
					continue
				}
				// The entry stays pending; the status bar already
				// shows why.
				machine.logger.Debug("envelope not sent", "kind", envelope.Kind().String(), "error", err)
			}
		}
		machine.renderer.Draw(machine.state.View())
	}
}
