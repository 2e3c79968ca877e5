// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "errors"

var (
	// ErrMalformedPayload reports a complete frame whose payload does
	// not match the envelope schema: empty, wrong version, unknown
	// kind, or an undecodable body. The connection should be dropped.
	ErrMalformedPayload = errors.New("wire: malformed payload")

	// ErrConnectionClosed reports that the stream ended (EOF, reset,
	// local close) before a full length prefix or payload was read,
	// or that a write could not complete.
	ErrConnectionClosed = errors.New("wire: connection closed")

	// ErrOversizedFrame reports a length prefix above the configured
	// maximum, or an envelope too large to send.
	ErrOversizedFrame = errors.New("wire: oversized frame")
)
