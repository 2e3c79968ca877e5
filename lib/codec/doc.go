// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides huddle's CBOR encoding configuration.
//
// CBOR carries the field body of every wire envelope. The envelope
// framing, version byte and kind tag belong to package wire; this
// package only turns the body structs into bytes and back, so the
// same logical message always produces identical bytes on every
// client and relay build.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items.
//
// The decoder is configured for input from unauthenticated peers:
// nesting depth, array length and map size are capped, duplicate map
// keys and indefinite-length items are rejected. Every frame the
// relay receives is attacker-controlled, so these limits are part of
// the protocol rather than tuning knobs.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Wire body types use `cbor` struct tags exclusively; they are never
// serialized as JSON.
package codec
