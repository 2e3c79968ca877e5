// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bureau-foundation/huddle/lib/codec"
)

// DefaultMaxFrameSize bounds a single payload. A 4096x4096 RGB24
// frame is 48 MiB, but the default camera sends 160x120 and real
// deployments stay well under this; the relay and client may raise
// it through configuration.
const DefaultMaxFrameSize = 16 * 1024 * 1024

// RelayOverhead is the most a payload can grow when the relay
// rewrites it for delivery: sent_at on chat, plus source and echo on
// video. The relay accepts payloads up to its limit minus this much,
// and clients send at most that, so every rewritten envelope still
// fits the limit on the way out.
const RelayOverhead = 64

// SendLimit is the largest payload a peer may send toward a relay
// whose frame limit is maxFrameSize.
func SendLimit(maxFrameSize int) int {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return max(maxFrameSize-RelayOverhead, 1)
}

// lengthPrefixSize is the size of the frame length prefix.
const lengthPrefixSize = 4

// headerSize is the version and kind bytes at the start of a payload.
const headerSize = 2

// EncodePayload serializes an envelope into a payload without the
// length prefix.
func EncodePayload(envelope Envelope) ([]byte, error) {
	if envelope == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrMalformedPayload)
	}
	body, err := codec.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", envelope.Kind(), err)
	}
	payload := make([]byte, headerSize+len(body))
	payload[0] = Version
	payload[1] = byte(envelope.Kind())
	copy(payload[headerSize:], body)
	return payload, nil
}

// Encode serializes an envelope into a complete frame: length prefix
// then payload. It fails only for a nil envelope or a payload that
// cannot be described by a 32-bit length.
func Encode(envelope Envelope) ([]byte, error) {
	payload, err := EncodePayload(envelope)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d-byte payload", ErrOversizedFrame, len(payload))
	}
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)
	return frame, nil
}

// EncodeLimited is Encode refusing, with ErrOversizedFrame, a payload
// longer than maxFrameSize.
func EncodeLimited(envelope Envelope, maxFrameSize int) ([]byte, error) {
	frame, err := Encode(envelope)
	if err != nil {
		return nil, err
	}
	if payloadLength := len(frame) - lengthPrefixSize; payloadLength > maxFrameSize {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, maximum %d",
			ErrOversizedFrame, envelope.Kind(), payloadLength, maxFrameSize)
	}
	return frame, nil
}

// WriteEnvelope encodes envelope and writes it to w as one frame. A
// payload longer than maxFrameSize is refused with ErrOversizedFrame
// before anything is written, so a peer enforcing the same limit
// never sees it. Write failures wrap ErrConnectionClosed.
func WriteEnvelope(w io.Writer, envelope Envelope, maxFrameSize int) error {
	frame, err := EncodeLimited(envelope, maxFrameSize)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrConnectionClosed, envelope.Kind(), err)
	}
	return nil
}

// DecodePayload parses a payload (without its length prefix) into an
// envelope. Every failure wraps ErrMalformedPayload.
func DecodePayload(payload []byte) (Envelope, error) {
	if len(payload) < headerSize {
		return nil, fmt.Errorf("%w: %d-byte payload is shorter than the header", ErrMalformedPayload, len(payload))
	}
	if payload[0] != Version {
		return nil, fmt.Errorf("%w: version %d, expected %d", ErrMalformedPayload, payload[0], Version)
	}
	kind := Kind(payload[1])
	body := payload[headerSize:]

	var (
		envelope Envelope
		err      error
	)
	switch kind {
	case KindChatMessage:
		envelope, err = decodeBody[ChatMessage](body)
	case KindChatFromOther:
		envelope, err = decodeBody[ChatFromOther](body)
	case KindChatEcho:
		envelope, err = decodeBody[ChatEcho](body)
	case KindVideoFrame:
		var frame VideoFrame
		frame, err = decodeBody[VideoFrame](body)
		if err == nil {
			err = frame.validate()
		}
		envelope = frame
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrMalformedPayload, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %w", ErrMalformedPayload, kind, err)
	}
	return envelope, nil
}

func decodeBody[T any](body []byte) (T, error) {
	var value T
	err := codec.Unmarshal(body, &value)
	return value, err
}

// Decoder reads frames from a stream.
type Decoder struct {
	reader       io.Reader
	maxFrameSize int
	prefix       [lengthPrefixSize]byte
	// received counts bytes consumed from reader, prefixes included.
	received uint64
}

// NewDecoder returns a Decoder reading from r and rejecting payloads
// longer than maxFrameSize. A non-positive maxFrameSize selects
// DefaultMaxFrameSize.
func NewDecoder(r io.Reader, maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{reader: r, maxFrameSize: maxFrameSize}
}

// Decode blocks until one full frame is available and returns its
// envelope. Short reads are retried until the frame is complete.
func (decoder *Decoder) Decode() (Envelope, error) {
	payload, err := decoder.ReadPayload()
	if err != nil {
		return nil, err
	}
	return DecodePayload(payload)
}

// ReadPayload reads one frame and returns its payload undecoded.
// The relay uses it to log the raw body of rejected frames.
func (decoder *Decoder) ReadPayload() ([]byte, error) {
	if _, err := io.ReadFull(decoder.reader, decoder.prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: reading length prefix: %w", ErrConnectionClosed, err)
	}
	decoder.received += lengthPrefixSize

	length := binary.BigEndian.Uint32(decoder.prefix[:])
	if uint64(length) > uint64(decoder.maxFrameSize) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds maximum %d",
			ErrOversizedFrame, length, decoder.maxFrameSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(decoder.reader, payload); err != nil {
		return nil, fmt.Errorf("%w: reading %d-byte payload: %w", ErrConnectionClosed, length, err)
	}
	decoder.received += uint64(length)
	return payload, nil
}

// Received returns the number of bytes consumed from the stream.
func (decoder *Decoder) Received() uint64 {
	return decoder.received
}
