// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

// bands returns an RGB24 image of flat 8x8 blocks, which every
// supported algorithm compresses.
func bands(width, height int) []byte {
	pixels := make([]byte, 0, width*height*3)
	for y := range height {
		for x := range width {
			pixels = append(pixels, byte(x/8*32), byte(y/8*32), 0x80)
		}
	}
	return pixels
}

// noise returns incompressible RGB24 data.
func noise(width, height int) []byte {
	random := rand.New(rand.NewPCG(1, 2))
	pixels := make([]byte, width*height*3)
	for index := range pixels {
		pixels[index] = byte(random.Uint32())
	}
	return pixels
}

func TestVideoFrameCompressionRoundTrip(t *testing.T) {
	t.Parallel()
	pixels := bands(64, 48)
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()
			frame, err := NewVideoFrame(pixels, 64, 48, compression)
			if err != nil {
				t.Fatalf("NewVideoFrame: %v", err)
			}
			if frame.Encoding != compression {
				t.Fatalf("Encoding = %s, want %s", frame.Encoding, compression)
			}
			if compression != CompressionNone && len(frame.Data) >= len(pixels) {
				t.Errorf("%s produced %d bytes from %d", compression, len(frame.Data), len(pixels))
			}

			// Through the codec and back.
			payload, err := EncodePayload(frame)
			if err != nil {
				t.Fatalf("EncodePayload: %v", err)
			}
			envelope, err := DecodePayload(payload)
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}
			decoded, err := envelope.(VideoFrame).Decompressed()
			if err != nil {
				t.Fatalf("Decompressed: %v", err)
			}
			if decoded.Encoding != CompressionNone {
				t.Errorf("Decompressed encoding = %s", decoded.Encoding)
			}
			if !bytes.Equal(decoded.Data, pixels) {
				t.Fatal("decompressed pixels differ from input")
			}
		})
	}
}

func TestVideoFrameIncompressibleFallsBack(t *testing.T) {
	t.Parallel()
	pixels := noise(32, 32)
	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		frame, err := NewVideoFrame(pixels, 32, 32, compression)
		if err != nil {
			t.Fatalf("NewVideoFrame(%s): %v", compression, err)
		}
		if frame.Encoding != CompressionNone {
			t.Errorf("%s on noise: Encoding = %s, want none", compression, frame.Encoding)
		}
		got, err := frame.Pixels()
		if err != nil {
			t.Fatalf("Pixels: %v", err)
		}
		if !bytes.Equal(got, pixels) {
			t.Errorf("%s fallback altered pixels", compression)
		}
	}
}

func TestNewVideoFrameValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		pixels        []byte
		width, height int
		compression   Compression
	}{
		{"short pixels", make([]byte, 11), 2, 2, CompressionNone},
		{"zero width", nil, 0, 2, CompressionNone},
		{"too wide", nil, MaxVideoDimension + 1, 1, CompressionNone},
		{"unknown compression", make([]byte, 3), 1, 1, Compression(7)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewVideoFrame(test.pixels, test.width, test.height, test.compression); err == nil {
				t.Fatal("NewVideoFrame succeeded, want error")
			}
		})
	}
}

func TestPixelsRejectsCorruptData(t *testing.T) {
	t.Parallel()
	frame, err := NewVideoFrame(bands(16, 16), 16, 16, CompressionLZ4)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	corrupt := frame
	corrupt.Data = []byte{0xff, 0x00, 0x12}
	if _, err := corrupt.Pixels(); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Pixels on corrupt lz4 = %v, want ErrMalformedPayload", err)
	}

	short := VideoFrame{Data: make([]byte, 5), Width: 2, Height: 1, RawSize: 6}
	if _, err := short.Pixels(); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Pixels on short raw frame = %v, want ErrMalformedPayload", err)
	}
}

func TestParseCompression(t *testing.T) {
	t.Parallel()
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(compression.String())
		if err != nil || parsed != compression {
			t.Errorf("ParseCompression(%q) = %v, %v", compression.String(), parsed, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(gzip) succeeded")
	}
}
