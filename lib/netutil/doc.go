// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies socket errors for huddle's TCP peers.
//
// Both ends of a huddle connection tear down by closing the whole
// socket, so the surviving side sees a mix of EOF, "use of closed
// network connection", EPIPE and ECONNRESET depending on timing.
// IsExpectedCloseError folds all of them into "the peer went away",
// which package wire reports as ErrConnectionClosed.
package netutil
