// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/huddle/lib/broadcast"
	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/wire"
)

// DefaultFanoutCapacity is how many published items a subscriber may
// lag behind before it starts losing the oldest.
const DefaultFanoutCapacity = 16

// DefaultWriteTimeout bounds a single envelope write to a client. A
// client that cannot absorb one frame in this time is disconnected
// rather than allowed to hold its writer forever.
const DefaultWriteTimeout = 10 * time.Second

// Config holds the Server's tunables. Zero values select defaults.
type Config struct {
	// MaxFrameSize bounds the payload of any frame written to a
	// client. Frames read from a client are held to
	// wire.SendLimit(MaxFrameSize).
	MaxFrameSize int

	// FanoutCapacity is the broadcast channel capacity.
	FanoutCapacity int

	// WriteTimeout is the deadline applied to each envelope write.
	WriteTimeout time.Duration

	// Clock stamps published items. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives connection lifecycle and error records.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// item is one published envelope together with its origin.
type item struct {
	envelope wire.Envelope
	origin   string
	source   uint32
	sentAt   int64
}

// Server relays envelopes between every connected client.
type Server struct {
	// maxFrameSize bounds frames written to clients; readLimit, which
	// leaves room for the rewrite in deliver, bounds frames read.
	maxFrameSize int
	readLimit    int
	writeTimeout time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	channel *broadcast.Channel[item]

	// nextSource hands out source indices; the first connection
	// receives 1.
	nextSource atomic.Uint32

	// activeConnections tracks live handlers. Serve waits for all of
	// them before returning.
	activeConnections sync.WaitGroup
}

// New creates a Server. Call Serve or ListenAndServe to run it.
func New(config Config) *Server {
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if config.FanoutCapacity <= 0 {
		config.FanoutCapacity = DefaultFanoutCapacity
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		maxFrameSize: config.MaxFrameSize,
		readLimit:    wire.SendLimit(config.MaxFrameSize),
		writeTimeout: config.WriteTimeout,
		clock:        config.Clock,
		logger:       config.Logger,
		channel:      broadcast.New[item](config.FanoutCapacity),
	}
}

// ListenAndServe listens on the TCP address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	var listenConfig net.ListenConfig
	listener, err := listenConfig.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then
// closes the listener, waits for every connection handler to exit and
// closes the broadcast channel. Serve takes ownership of listener.
// A Server serves at most once.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	// Unblock Accept when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	s.logger.Info("relay listening", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.channel.Close()
	s.logger.Info("relay stopped")
	return nil
}

// Connections returns the number of live client connections.
func (s *Server) Connections() int {
	return s.channel.Subscribers()
}
