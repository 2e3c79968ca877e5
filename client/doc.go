// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client connects the huddle terminal client to a relay.
//
// A [Bridge] owns one TCP connection and runs two goroutines over it.
// The writer drains a bounded queue filled through [Bridge.Enqueue]
// and writes envelopes in submission order; a full queue blocks the
// caller, which is the client's only back-pressure. The reader decodes
// envelopes, decompresses video, and publishes each one to the
// session event bus as a [session.NetworkEvent]. When the stream ends
// for any reason the reader publishes exactly one
// [session.DisconnectedEvent].
//
// [RunTicker] is the third event producer: a fixed-interval redraw
// tick that is dropped, not queued, when the bus is full.
package client
