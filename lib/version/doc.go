// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the huddle binaries.
//
// GitCommit, GitDirty, BuildTime and Version are injected with
// -ldflags -X and fall back to "unknown" / "0.1.0-dev" in development
// builds:
//
//	go build -ldflags "-X github.com/bureau-foundation/huddle/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
