// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintNamesBinary(t *testing.T) {
	var buffer bytes.Buffer
	Print(&buffer, "huddle-relay")
	output := buffer.String()
	if !strings.HasPrefix(output, "huddle-relay "+Version) {
		t.Errorf("output %q does not start with binary and version", output)
	}
	if !strings.Contains(output, "Platform:") {
		t.Errorf("output %q lacks platform line", output)
	}
}

func TestInfoMarksDirtyBuilds(t *testing.T) {
	previous := GitDirty
	t.Cleanup(func() { GitDirty = previous })

	GitDirty = "true"
	if !strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, want -dirty marker", Info())
	}
}
