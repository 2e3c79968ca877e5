// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// Version is the payload layout version written into every frame.
const Version uint8 = 1

// Kind tags the envelope variant carried by a payload. Values are
// protocol constants.
type Kind uint8

const (
	// KindChatMessage is a chat line sent by a client to the relay.
	KindChatMessage Kind = 0x01

	// KindChatFromOther is a chat line the relay forwards to every
	// connection except its origin.
	KindChatFromOther Kind = 0x02

	// KindChatEcho is a chat line the relay returns to its origin,
	// carrying the client's message id for reconciliation.
	KindChatEcho Kind = 0x03

	// KindVideoFrame is one camera frame, in either direction.
	KindVideoFrame Kind = 0x04
)

// String returns the kind's name.
func (kind Kind) String() string {
	switch kind {
	case KindChatMessage:
		return "chat_message"
	case KindChatFromOther:
		return "chat_from_other"
	case KindChatEcho:
		return "chat_echo"
	case KindVideoFrame:
		return "video_frame"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(kind))
	}
}

// Envelope is one wire message. The concrete types are [ChatMessage],
// [ChatFromOther], [ChatEcho] and [VideoFrame]; the set is closed.
// Envelopes are values and are not modified after construction.
type Envelope interface {
	Kind() Kind

	envelope()
}

// ChatMessage is sent by a client when the user submits a line. ID is
// allocated by the client and is only meaningful to that client.
type ChatMessage struct {
	Text string `cbor:"text"`
	ID   uint64 `cbor:"id"`
}

// ChatFromOther is a peer's chat line as delivered by the relay.
// SentAt is the relay's publish time in unix milliseconds.
type ChatFromOther struct {
	Text   string `cbor:"text"`
	SentAt int64  `cbor:"sent_at,omitempty"`
}

// ChatEcho is the relay returning a client's own chat line. ID is the
// value the client put in the originating [ChatMessage].
type ChatEcho struct {
	Text   string `cbor:"text"`
	ID     uint64 `cbor:"id"`
	SentAt int64  `cbor:"sent_at,omitempty"`
}

// VideoFrame carries one RGB24 frame. Data holds the pixels encoded
// per Encoding; RawSize is the decoded length, always
// Width*Height*3. Source and Echo are set by the relay: Source is the
// originating connection's index and Echo reports that the receiver
// is that connection.
type VideoFrame struct {
	Data     []byte      `cbor:"data"`
	Width    uint16      `cbor:"width"`
	Height   uint16      `cbor:"height"`
	Encoding Compression `cbor:"encoding,omitempty"`
	RawSize  uint32      `cbor:"raw_size"`
	Source   uint32      `cbor:"source,omitempty"`
	Echo     bool        `cbor:"echo,omitempty"`
	SentAt   int64       `cbor:"sent_at,omitempty"`
}

func (ChatMessage) Kind() Kind   { return KindChatMessage }
func (ChatFromOther) Kind() Kind { return KindChatFromOther }
func (ChatEcho) Kind() Kind      { return KindChatEcho }
func (VideoFrame) Kind() Kind    { return KindVideoFrame }

func (ChatMessage) envelope()   {}
func (ChatFromOther) envelope() {}
func (ChatEcho) envelope()      {}
func (VideoFrame) envelope()    {}
