// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/huddle/wire"
)

// Sink accepts outgoing envelopes. client.Bridge implements it.
type Sink interface {
	Enqueue(ctx context.Context, envelope wire.Envelope) error
}

// PumpConfig configures a Pump.
type PumpConfig struct {
	// FPS caps frames read per second. Zero or negative means
	// unlimited.
	FPS float64

	// Compression is applied to every frame that shrinks under it.
	Compression wire.Compression

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Pump moves frames from a Source to a Sink.
type Pump struct {
	source      Source
	sink        Sink
	limiter     *rate.Limiter
	compression wire.Compression
	logger      *slog.Logger

	last    [32]byte
	hasLast bool

	sent    uint64
	skipped uint64
}

// NewPump returns a Pump; call Run to start it.
func NewPump(source Source, sink Sink, config PumpConfig) *Pump {
	limit := rate.Inf
	if config.FPS > 0 {
		limit = rate.Limit(config.FPS)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Pump{
		source:      source,
		sink:        sink,
		limiter:     rate.NewLimiter(limit, 1),
		compression: config.Compression,
		logger:      config.Logger,
	}
}

// Run pumps frames until ctx is cancelled, the source returns io.EOF
// or the sink reports the connection closed; each of those ends Run
// with nil. Frames the sink refuses as oversized are dropped. Source
// and encoding failures are returned.
func (pump *Pump) Run(ctx context.Context) error {
	defer func() {
		pump.logger.Debug("camera pump stopped", "sent", pump.sent, "unchanged", pump.skipped)
	}()
	for {
		if err := pump.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		frame, err := pump.source.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading camera frame: %w", err)
		}

		digest := blake3.Sum256(frame.Pixels)
		if pump.hasLast && digest == pump.last {
			pump.skipped++
			continue
		}

		video, err := wire.NewVideoFrame(frame.Pixels, frame.Width, frame.Height, pump.compression)
		if err != nil {
			return fmt.Errorf("encoding camera frame: %w", err)
		}
		if err := pump.sink.Enqueue(ctx, video); err != nil {
			if ctx.Err() != nil || errors.Is(err, wire.ErrConnectionClosed) {
				return nil
			}
			if !errors.Is(err, wire.ErrOversizedFrame) {
				return err
			}
			// An unchanged scene is refused only once.
			pump.logger.Warn("camera frame too large to send", "width", frame.Width, "height", frame.Height, "error", err)
			pump.last = digest
			pump.hasLast = true
			continue
		}
		pump.last = digest
		pump.hasLast = true
		pump.sent++
	}
}

// Stats returns how many frames were sent and how many were skipped
// as unchanged. Only valid after Run returns.
func (pump *Pump) Stats() (sent, skipped uint64) {
	return pump.sent, pump.skipped
}
