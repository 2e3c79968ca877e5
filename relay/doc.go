// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay implements the huddle rendezvous server.
//
// Every accepted TCP connection subscribes to one process-wide
// [broadcast.Channel] before its first read, then runs a reader and a
// writer under an errgroup for the rest of its life:
//
//   - The reader decodes envelopes and publishes each chat message or
//     video frame, stamped with the origin connection's identity, its
//     source index and the publish time.
//   - The writer receives published items and rewrites them for the
//     recipient: a chat message goes back to its origin as a ChatEcho
//     (carrying the client's message id) and to everyone else as a
//     ChatFromOther. Video frames go to every connection including the
//     origin, tagged with the source index and an echo flag, so each
//     client can place its own preview consistently.
//
// The broadcast channel is lossy: a subscriber that falls more than
// the channel capacity behind loses the oldest items, and the writer
// logs how many. Publishers never block on slow readers.
//
// Failures are connection-local. A decode error, an oversized frame,
// a write timeout or a disconnect ends only that connection's handler
// and releases its subscription. Cancelling the Serve context closes
// the listener and every live connection, and Serve returns once all
// handlers have exited.
package relay
