// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/lib/testutil"
	"github.com/bureau-foundation/huddle/session"
	"github.com/bureau-foundation/huddle/wire"
)

const timeout = 5 * time.Second

type bridgeHarness struct {
	bridge *Bridge
	events *eventbus.Bus[session.Event]
	// relay is the far end of the connection.
	relay   net.Conn
	decoder *wire.Decoder
	cancel  context.CancelFunc
	done    chan error
}

func startBridge(t *testing.T) *bridgeHarness {
	t.Helper()
	return startBridgeWith(t, Options{})
}

func startBridgeWith(t *testing.T, options Options) *bridgeHarness {
	t.Helper()
	local, remote := net.Pipe()
	events := eventbus.New[session.Event](16)
	options.Logger = slog.New(slog.DiscardHandler)
	bridge := NewBridge(local, events, options)

	ctx, cancel := context.WithCancel(context.Background())
	harness := &bridgeHarness{
		bridge:  bridge,
		events:  events,
		relay:   remote,
		decoder: wire.NewDecoder(remote, 0),
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() { harness.done <- bridge.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		remote.Close()
	})
	return harness
}

func (harness *bridgeHarness) nextEvent(t *testing.T) session.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	event, err := harness.events.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return event
}

func (harness *bridgeHarness) relaySend(t *testing.T, envelope wire.Envelope) {
	t.Helper()
	harness.relay.SetWriteDeadline(time.Now().Add(timeout))
	if err := wire.WriteEnvelope(harness.relay, envelope, wire.DefaultMaxFrameSize); err != nil {
		t.Fatalf("relay write: %v", err)
	}
}

func TestWriterPreservesOrder(t *testing.T) {
	t.Parallel()
	harness := startBridge(t)
	ctx := context.Background()

	want := []wire.Envelope{
		wire.ChatMessage{Text: "one", ID: 1},
		wire.ChatMessage{Text: "two", ID: 2},
		wire.ChatMessage{Text: "three", ID: 3},
	}
	for _, envelope := range want {
		if err := harness.bridge.Enqueue(ctx, envelope); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	harness.relay.SetReadDeadline(time.Now().Add(timeout))
	var got []wire.Envelope
	for range want {
		envelope, err := harness.decoder.Decode()
		if err != nil {
			t.Fatalf("relay decode: %v", err)
		}
		got = append(got, envelope)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("relay received (-want +got):\n%s", diff)
	}
	if sent, _ := harness.bridge.Stats(); sent == 0 {
		t.Fatal("Stats reports nothing sent")
	}
}

func TestOversizedEnvelopeIsRefusedWithoutDisconnecting(t *testing.T) {
	t.Parallel()
	const limit = 64 * 1024
	harness := startBridgeWith(t, Options{MaxFrameSize: limit})
	ctx := context.Background()

	long := wire.ChatMessage{Text: strings.Repeat("x", 70*1024), ID: 1}
	if err := harness.bridge.Enqueue(ctx, long); !errors.Is(err, wire.ErrOversizedFrame) {
		t.Fatalf("Enqueue(70 KiB chat) = %v, want ErrOversizedFrame", err)
	}
	video := wire.VideoFrame{Data: make([]byte, limit), Width: 128, Height: 128, RawSize: limit}
	if err := harness.bridge.Enqueue(ctx, video); !errors.Is(err, wire.ErrOversizedFrame) {
		t.Fatalf("Enqueue(64 KiB video) = %v, want ErrOversizedFrame", err)
	}

	next := wire.ChatMessage{Text: "short", ID: 2}
	if err := harness.bridge.Enqueue(ctx, next); err != nil {
		t.Fatalf("Enqueue after refusal: %v", err)
	}
	harness.relay.SetReadDeadline(time.Now().Add(timeout))
	got, err := harness.decoder.Decode()
	if err != nil {
		t.Fatalf("relay decode: %v", err)
	}
	if diff := cmp.Diff(wire.Envelope(next), got); diff != "" {
		t.Fatalf("relay received (-want +got):\n%s", diff)
	}

	if pending := harness.events.Len(); pending != 0 {
		t.Fatalf("%d events published, want none (no disconnect)", pending)
	}
	select {
	case err := <-harness.done:
		t.Fatalf("Run returned %v after a refused envelope", err)
	default:
	}
}

func TestReaderPublishesNetworkEvents(t *testing.T) {
	t.Parallel()
	harness := startBridge(t)

	echo := wire.ChatEcho{Text: "hi", ID: 1, SentAt: 1760000000000}
	go harness.relaySend(t, echo)

	event, ok := harness.nextEvent(t).(session.NetworkEvent)
	if !ok {
		t.Fatal("expected NetworkEvent")
	}
	if diff := cmp.Diff(wire.Envelope(echo), event.Envelope); diff != "" {
		t.Fatalf("envelope (-want +got):\n%s", diff)
	}
	frame, _ := wire.Encode(echo)
	if event.Size != len(frame) {
		t.Fatalf("Size = %d, want %d", event.Size, len(frame))
	}
}

func TestReaderDecompressesVideoAndSkipsCorrupt(t *testing.T) {
	t.Parallel()
	harness := startBridge(t)

	pixels := make([]byte, 16*16*3)
	for index := range pixels {
		pixels[index] = byte(index / 96)
	}
	good, err := wire.NewVideoFrame(pixels, 16, 16, wire.CompressionZstd)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	if good.Encoding != wire.CompressionZstd {
		t.Fatalf("test frame did not compress")
	}
	good.Source = 2
	corrupt := good
	corrupt.Data = []byte{1, 2, 3}

	go func() {
		harness.relaySend(t, corrupt)
		harness.relaySend(t, good)
	}()

	event := harness.nextEvent(t).(session.NetworkEvent)
	frame, ok := event.Envelope.(wire.VideoFrame)
	if !ok {
		t.Fatalf("got %T, want VideoFrame", event.Envelope)
	}
	if frame.Encoding != wire.CompressionNone || !cmp.Equal(frame.Data, pixels) {
		t.Fatalf("frame not decompressed: encoding %s, %d bytes", frame.Encoding, len(frame.Data))
	}
	if frame.Source != 2 {
		t.Fatalf("Source = %d, want 2", frame.Source)
	}
}

func TestRemoteCloseDisconnectsOnce(t *testing.T) {
	t.Parallel()
	harness := startBridge(t)
	harness.relay.Close()

	event, ok := harness.nextEvent(t).(session.DisconnectedEvent)
	if !ok {
		t.Fatal("expected DisconnectedEvent")
	}
	if !errors.Is(event.Err, wire.ErrConnectionClosed) {
		t.Fatalf("disconnect error = %v, want ErrConnectionClosed", event.Err)
	}

	err := testutil.RequireReceive(t, harness.done, timeout, "Run did not return")
	if !errors.Is(err, wire.ErrConnectionClosed) {
		t.Fatalf("Run = %v, want ErrConnectionClosed", err)
	}
	if harness.events.Len() != 0 {
		t.Fatalf("%d extra events after disconnect", harness.events.Len())
	}
	if err := harness.bridge.Enqueue(context.Background(), wire.ChatMessage{Text: "late"}); !errors.Is(err, wire.ErrConnectionClosed) {
		t.Fatalf("Enqueue after disconnect = %v, want ErrConnectionClosed", err)
	}
}

func TestCancelClosesConnection(t *testing.T) {
	t.Parallel()
	harness := startBridge(t)
	harness.cancel()

	if err := testutil.RequireReceive(t, harness.done, timeout, "Run did not return"); err != nil {
		t.Fatalf("Run after cancel = %v, want nil", err)
	}
	harness.relay.SetReadDeadline(time.Now().Add(timeout))
	if _, err := harness.decoder.Decode(); !errors.Is(err, wire.ErrConnectionClosed) {
		t.Fatalf("relay read after client quit = %v, want ErrConnectionClosed", err)
	}
}

func TestEnqueueBlocksWhenQueueFull(t *testing.T) {
	t.Parallel()
	// No Run: nothing drains the queue.
	local, remote := net.Pipe()
	defer remote.Close()
	bridge := NewBridge(local, eventbus.New[session.Event](1), Options{QueueSize: 1})
	defer bridge.Close()

	if err := bridge.Enqueue(context.Background(), wire.ChatMessage{Text: "a"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bridge.Enqueue(ctx, wire.ChatMessage{Text: "b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Enqueue on full queue = %v, want DeadlineExceeded", err)
	}
}

func TestDial(t *testing.T) {
	t.Parallel()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	bridge, err := Dial(context.Background(), listener.Addr().String(), eventbus.New[session.Event](1), Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer bridge.Close()
	conn := testutil.RequireReceive(t, accepted, timeout, "relay did not accept")
	conn.Close()

	listener.Close()
	if _, err := Dial(context.Background(), listener.Addr().String(), eventbus.New[session.Event](1), Options{}); err == nil {
		t.Fatal("Dial to a closed listener succeeded")
	}
}
