// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/session"
	"github.com/bureau-foundation/huddle/wire"
)

// DefaultQueueSize is the outgoing queue length. Chat lines are rare;
// the queue mostly absorbs camera frames while a write is in flight.
const DefaultQueueSize = 8

// Options configures a Bridge. Zero values select defaults.
type Options struct {
	// MaxFrameSize bounds frames read from the relay and should match
	// the relay's limit. Outgoing payloads are held to
	// wire.SendLimit(MaxFrameSize).
	MaxFrameSize int

	// QueueSize is the outgoing queue capacity.
	QueueSize int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Bridge translates between one relay connection and the session
// event bus.
type Bridge struct {
	conn         net.Conn
	events       *eventbus.Bus[session.Event]
	// outgoing holds encoded frames, checked against sendLimit.
	outgoing     chan []byte
	maxFrameSize int
	sendLimit    int
	logger       *slog.Logger

	// done is closed by Close; Enqueue fails fast afterwards.
	done      chan struct{}
	closeOnce sync.Once

	disconnectOnce sync.Once

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
}

// Dial connects to the relay at address and returns a Bridge
// publishing to events. Call Run to start it.
func Dial(ctx context.Context, address string, events *eventbus.Bus[session.Event], options Options) (*Bridge, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connecting to relay %s: %w", address, err)
	}
	return NewBridge(conn, events, options), nil
}

// NewBridge wraps an established connection. The Bridge owns conn.
func NewBridge(conn net.Conn, events *eventbus.Bus[session.Event], options Options) *Bridge {
	if options.MaxFrameSize <= 0 {
		options.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if options.QueueSize <= 0 {
		options.QueueSize = DefaultQueueSize
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Bridge{
		conn:         conn,
		events:       events,
		outgoing:     make(chan []byte, options.QueueSize),
		maxFrameSize: options.MaxFrameSize,
		sendLimit:    wire.SendLimit(options.MaxFrameSize),
		logger:       options.Logger,
		done:         make(chan struct{}),
	}
}

// Run runs the writer and reader until either fails or ctx is
// cancelled, then closes the connection. Cancellation is a clean stop
// and returns nil; otherwise Run returns the error that ended the
// connection.
func (bridge *Bridge) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	// Closing the socket is what unblocks the reader.
	stop := context.AfterFunc(groupCtx, bridge.Close)
	defer stop()

	group.Go(func() error { return bridge.writeLoop(groupCtx) })
	group.Go(func() error { return bridge.readLoop(ctx) })
	err := group.Wait()
	bridge.Close()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Enqueue queues envelope for sending, blocking while the queue is
// full. An envelope too large to send is refused with
// wire.ErrOversizedFrame and the connection is unaffected. After the
// bridge has closed it returns wire.ErrConnectionClosed.
func (bridge *Bridge) Enqueue(ctx context.Context, envelope wire.Envelope) error {
	frame, err := wire.EncodeLimited(envelope, bridge.sendLimit)
	if err != nil {
		return err
	}
	select {
	case <-bridge.done:
		return wire.ErrConnectionClosed
	default:
	}
	select {
	case bridge.outgoing <- frame:
		return nil
	case <-bridge.done:
		return wire.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the connection. Envelopes still queued are dropped.
// Idempotent.
func (bridge *Bridge) Close() {
	bridge.closeOnce.Do(func() {
		close(bridge.done)
		bridge.conn.Close()
	})
}

// Stats returns the bytes written to and read from the connection.
func (bridge *Bridge) Stats() (sent, received uint64) {
	return bridge.bytesSent.Load(), bridge.bytesReceived.Load()
}

func (bridge *Bridge) writeLoop(ctx context.Context) error {
	writer := &countingWriter{writer: bridge.conn, count: &bridge.bytesSent}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-bridge.done:
			return wire.ErrConnectionClosed
		case frame := <-bridge.outgoing:
			if _, err := writer.Write(frame); err != nil {
				return fmt.Errorf("%w: writing to relay: %w", wire.ErrConnectionClosed, err)
			}
		}
	}
}

// readLoop publishes decoded envelopes until the stream fails. It
// publishes the disconnect itself, using the caller's context so a
// user quit never blocks on a bus nobody drains.
func (bridge *Bridge) readLoop(ctx context.Context) error {
	decoder := wire.NewDecoder(bridge.conn, bridge.maxFrameSize)
	for {
		before := decoder.Received()
		envelope, err := decoder.Decode()
		bridge.bytesReceived.Add(decoder.Received() - before)
		if err != nil {
			bridge.publishDisconnect(ctx, err)
			return err
		}

		if frame, ok := envelope.(wire.VideoFrame); ok {
			decoded, err := frame.Decompressed()
			if err != nil {
				bridge.logger.Warn("skipping corrupt video frame", "source", frame.Source, "error", err)
				continue
			}
			envelope = decoded
		}

		event := session.NetworkEvent{Envelope: envelope, Size: int(decoder.Received() - before)}
		if err := bridge.events.Publish(ctx, event); err != nil {
			return err
		}
	}
}

func (bridge *Bridge) publishDisconnect(ctx context.Context, err error) {
	bridge.disconnectOnce.Do(func() {
		if publishErr := bridge.events.Publish(ctx, session.DisconnectedEvent{Err: err}); publishErr != nil {
			bridge.logger.Debug("disconnect not delivered", "error", publishErr)
		}
	})
}

// countingWriter adds every byte written to count.
type countingWriter struct {
	writer io.Writer
	count  *atomic.Uint64
}

func (w *countingWriter) Write(data []byte) (int, error) {
	n, err := w.writer.Write(data)
	w.count.Add(uint64(n))
	return n, err
}
