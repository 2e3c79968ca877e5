// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/huddle/lib/broadcast"
	"github.com/bureau-foundation/huddle/lib/codec"
	"github.com/bureau-foundation/huddle/lib/netutil"
	"github.com/bureau-foundation/huddle/wire"
)

// maxDiagnosticLength truncates the CBOR diagnostic logged for a
// rejected frame.
const maxDiagnosticLength = 256

// connection is the per-client state shared by the reader and writer.
type connection struct {
	id     string
	source uint32
	conn   net.Conn
	logger *slog.Logger

	// Owned by the reader.
	bytesIn  uint64
	framesIn uint64

	// Owned by the writer.
	bytesOut  uint64
	framesOut uint64
	missed    uint64
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Subscribe before the first read so this client sees the echo of
	// everything it sends.
	subscription := s.channel.Subscribe()
	defer subscription.Close()

	client := &connection{
		id:     uuid.NewString(),
		source: s.nextSource.Add(1),
		conn:   conn,
	}
	client.logger = s.logger.With(
		"connection", client.id,
		"source", client.source,
		"remote", conn.RemoteAddr().String(),
	)
	client.logger.Info("client connected", "connections", s.channel.Subscribers())
	connectedAt := s.clock.Now()

	group, groupCtx := errgroup.WithContext(ctx)

	// Either side finishing, or the server shutting down, closes the
	// socket so the other side's blocking I/O returns.
	stop := context.AfterFunc(groupCtx, func() { conn.Close() })
	defer stop()

	group.Go(func() error { return s.readLoop(client) })
	group.Go(func() error { return s.writeLoop(groupCtx, client, subscription) })
	err := group.Wait()

	attributes := []any{
		"duration", s.clock.Now().Sub(connectedAt).Round(time.Millisecond).String(),
		"received", humanize.Bytes(client.bytesIn),
		"frames_in", client.framesIn,
		"sent", humanize.Bytes(client.bytesOut),
		"frames_out", client.framesOut,
	}
	if client.missed > 0 {
		attributes = append(attributes, "missed", client.missed)
	}
	switch {
	case isDisconnect(err):
		client.logger.Info("client disconnected", attributes...)
	default:
		client.logger.Warn("client dropped", append(attributes, "error", err)...)
	}
}

// readLoop decodes envelopes from the client and publishes them until
// the stream fails. It always returns a non-nil error.
func (s *Server) readLoop(client *connection) error {
	decoder := wire.NewDecoder(client.conn, s.readLimit)
	defer func() { client.bytesIn = decoder.Received() }()

	for {
		payload, err := decoder.ReadPayload()
		if err != nil {
			return err
		}
		envelope, err := wire.DecodePayload(payload)
		if err != nil {
			s.logRejected(client, payload, err)
			return err
		}

		published := item{
			origin: client.id,
			source: client.source,
			sentAt: s.clock.Now().UnixMilli(),
		}
		switch envelope := envelope.(type) {
		case wire.ChatMessage:
			published.envelope = envelope
		case wire.VideoFrame:
			published.envelope = envelope
		default:
			// Only the relay produces the other kinds.
			return fmt.Errorf("%w: client sent %s", wire.ErrMalformedPayload, envelope.Kind())
		}
		client.framesIn++
		s.channel.Publish(published)
	}
}

// writeLoop forwards published items to the client until the
// subscription ends or a write fails.
func (s *Server) writeLoop(ctx context.Context, client *connection, subscription *broadcast.Subscription[item]) error {
	writer := &countingWriter{writer: client.conn}
	defer func() { client.bytesOut = writer.written }()

	for {
		published, missed, err := subscription.Receive(ctx)
		if err != nil {
			return err
		}
		if missed > 0 {
			client.missed += missed
			client.logger.Warn("client fell behind, dropped oldest items",
				"missed", missed,
				"total_missed", client.missed,
			)
		}

		envelope := deliver(published, client.id)
		if err := client.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("%w: setting write deadline: %w", wire.ErrConnectionClosed, err)
		}
		if err := wire.WriteEnvelope(writer, envelope, s.maxFrameSize); err != nil {
			if errors.Is(err, wire.ErrOversizedFrame) {
				// Our own limit; the client is not at fault.
				client.logger.Warn("skipping envelope above frame limit", "kind", envelope.Kind().String(), "error", err)
				continue
			}
			return err
		}
		client.framesOut++
	}
}

// deliver rewrites a published item for the connection recipient.
func deliver(published item, recipient string) wire.Envelope {
	self := published.origin == recipient
	switch envelope := published.envelope.(type) {
	case wire.ChatMessage:
		if self {
			return wire.ChatEcho{Text: envelope.Text, ID: envelope.ID, SentAt: published.sentAt}
		}
		return wire.ChatFromOther{Text: envelope.Text, SentAt: published.sentAt}
	case wire.VideoFrame:
		envelope.Source = published.source
		envelope.Echo = self
		envelope.SentAt = published.sentAt
		return envelope
	default:
		return published.envelope
	}
}

// logRejected records why a frame was refused, including a truncated
// diagnostic of its body when the body is CBOR.
func (s *Server) logRejected(client *connection, payload []byte, err error) {
	attributes := []any{"error", err, "length", len(payload)}
	if len(payload) > 2 {
		if diagnostic, diagErr := codec.Diagnose(payload[2:]); diagErr == nil {
			if len(diagnostic) > maxDiagnosticLength {
				diagnostic = diagnostic[:maxDiagnosticLength] + "..."
			}
			attributes = append(attributes, "body", diagnostic)
		}
	}
	client.logger.Debug("rejected frame", attributes...)
}

// isDisconnect reports whether a handler ended by a normal close: the
// peer hung up, the socket was closed locally, or the server is
// shutting down.
func isDisconnect(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, broadcast.ErrClosed) ||
		netutil.IsExpectedCloseError(err) ||
		(errors.Is(err, wire.ErrConnectionClosed) && !netutil.IsTimeout(err))
}

// countingWriter counts bytes written to the underlying writer.
type countingWriter struct {
	writer  io.Writer
	written uint64
}

func (w *countingWriter) Write(data []byte) (int, error) {
	n, err := w.writer.Write(data)
	w.written += uint64(n)
	return n, err
}
