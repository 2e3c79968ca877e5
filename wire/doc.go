// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the huddle envelope and its framing on a TCP
// byte stream.
//
// Every frame is a 4-byte big-endian payload length followed by the
// payload:
//
//	[length u32 BE][version u8][kind u8][CBOR body]
//
// The version and kind bytes are owned by this package and checked
// before the body is touched. The body is a CBOR map (see lib/codec)
// whose keys are the cbor struct tags on the envelope types. The
// length prefix is checked against the reader's configured maximum
// before any receive buffer is allocated, since peers are not
// authenticated.
//
// Decoding is suspension-safe: [Decoder.Decode] blocks until a whole
// frame has arrived and never treats a short read as an error. A
// stream that ends part-way through a frame reports
// [ErrConnectionClosed]; a complete frame with an invalid payload
// reports [ErrMalformedPayload]; an over-long length prefix reports
// [ErrOversizedFrame].
//
// Video frames optionally carry LZ4 or zstd compressed pixels. See
// [NewVideoFrame] and [VideoFrame.Pixels].
package wire
