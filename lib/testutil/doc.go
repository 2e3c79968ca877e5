// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by huddle's tests.
//
// [RequireReceive] and [RequireClosed] wrap the
// select-with-timeout pattern so tests of concurrent code (relay
// handlers, the client bridge, the event bus) never hang forever and
// never need their own time.After calls. These helpers are the only
// place tests use real wall-clock timeouts.
//
// Helpers call t.Fatalf on failure; setup failures are not
// recoverable.
package testutil
