// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFanoutHandler(t *testing.T) {
	t.Parallel()

	var verbose, quiet bytes.Buffer
	logger := slog.New(fanoutHandler{
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}).With("server", "relay.test:8080")

	logger.Debug("frame queued")
	logger.Warn("relay slow", "missed", 3)

	if got := strings.Count(verbose.String(), "\n"); got != 2 {
		t.Errorf("debug handler got %d records, want 2:\n%s", got, verbose.String())
	}
	if got := strings.Count(quiet.String(), "\n"); got != 1 {
		t.Errorf("warn handler got %d records, want 1:\n%s", got, quiet.String())
	}
	for _, output := range []string{verbose.String(), quiet.String()} {
		if !strings.Contains(output, "server=relay.test:8080") {
			t.Errorf("record missing inherited attribute:\n%s", output)
		}
	}
	if !strings.Contains(quiet.String(), "missed=3") {
		t.Errorf("warn record missing its attribute:\n%s", quiet.String())
	}
}
