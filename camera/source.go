// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package camera produces the client's outgoing video. A [Source]
// yields raw RGB24 frames; a [Pump] paces them, drops frames identical
// to the last one sent, compresses the rest and hands them to the
// network bridge.
//
// Device capture is not implemented here. [TestPattern] is a
// deterministic synthetic source used by the client's --camera flag
// and by tests.
package camera

// Frame is one packed RGB24 image, Width*Height*3 bytes.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
}

// Source yields frames. ReadFrame blocks until a frame is ready and
// returns io.EOF when the source is exhausted.
type Source interface {
	ReadFrame() (Frame, error)
}

// bars are the classic eight test-card colors.
var bars = [8][3]byte{
	{0xc0, 0xc0, 0xc0},
	{0xc0, 0xc0, 0x00},
	{0x00, 0xc0, 0xc0},
	{0x00, 0xc0, 0x00},
	{0xc0, 0x00, 0xc0},
	{0xc0, 0x00, 0x00},
	{0x00, 0x00, 0xc0},
	{0x10, 0x10, 0x10},
}

// TestPattern renders color bars that scroll one column to the left
// every Hold frames, with a white marker row sweeping down the image.
// The sequence depends only on the number of frames read.
type TestPattern struct {
	width  int
	height int
	hold   int
	frame  int
}

// NewTestPattern returns a width x height pattern that changes every
// hold reads. A hold below one is treated as one.
func NewTestPattern(width, height, hold int) *TestPattern {
	return &TestPattern{width: width, height: height, hold: max(hold, 1)}
}

// ReadFrame renders the next frame. It never fails.
func (pattern *TestPattern) ReadFrame() (Frame, error) {
	step := pattern.frame / pattern.hold
	pattern.frame++

	pixels := make([]byte, 0, pattern.width*pattern.height*3)
	barWidth := max(pattern.width/len(bars), 1)
	marker := step % max(pattern.height, 1)
	for y := range pattern.height {
		for x := range pattern.width {
			if y == marker {
				pixels = append(pixels, 0xff, 0xff, 0xff)
				continue
			}
			color := bars[((x+step)/barWidth)%len(bars)]
			pixels = append(pixels, color[0], color[1], color[2])
		}
	}
	return Frame{Pixels: pixels, Width: pattern.width, Height: pattern.height}, nil
}
