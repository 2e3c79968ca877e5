// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a VideoFrame's Data is encoded. Values
// are protocol constants.
type Compression uint8

const (
	// CompressionNone sends raw RGB24 pixels.
	CompressionNone Compression = 0

	// CompressionLZ4 sends an LZ4 block. Cheap enough to run on every
	// frame; synthetic and mostly static scenes shrink well.
	CompressionLZ4 Compression = 1

	// CompressionZstd sends a zstd frame at the default level. Better
	// ratio at a higher CPU cost per frame.
	CompressionZstd Compression = 2
)

// String returns the compression's configuration name.
func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// ParseCompression parses a configuration name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown video compression %q (want none, lz4 or zstd)", name)
	}
}

// MaxVideoDimension bounds a frame's width and height.
const MaxVideoDimension = 4096

// bytesPerPixel is the RGB24 pixel size.
const bytesPerPixel = 3

// errIncompressible is returned internally when compression would not
// shrink the data. NewVideoFrame falls back to CompressionNone.
var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(uint64(MaxVideoDimension)*MaxVideoDimension*bytesPerPixel),
	)
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

// NewVideoFrame builds a frame from packed RGB24 pixels, compressing
// them with the requested algorithm. When compression would not make
// the data smaller the frame is sent uncompressed. The frame keeps a
// reference to pixels when no compression is applied.
func NewVideoFrame(pixels []byte, width, height int, compression Compression) (VideoFrame, error) {
	if err := checkDimensions(width, height); err != nil {
		return VideoFrame{}, err
	}
	rawSize := width * height * bytesPerPixel
	if len(pixels) != rawSize {
		return VideoFrame{}, fmt.Errorf("%dx%d frame needs %d bytes of RGB24, got %d", width, height, rawSize, len(pixels))
	}

	data, encoding, err := compressPixels(pixels, compression)
	if err != nil {
		return VideoFrame{}, err
	}
	return VideoFrame{
		Data:     data,
		Width:    uint16(width),
		Height:   uint16(height),
		Encoding: encoding,
		RawSize:  uint32(rawSize),
	}, nil
}

func compressPixels(pixels []byte, compression Compression) ([]byte, Compression, error) {
	var (
		data []byte
		err  error
	)
	switch compression {
	case CompressionNone:
		return pixels, CompressionNone, nil
	case CompressionLZ4:
		data, err = compressLZ4(pixels)
	case CompressionZstd:
		data, err = compressZstd(pixels)
	default:
		return nil, 0, fmt.Errorf("unsupported video compression %s", compression)
	}
	if errors.Is(err, errIncompressible) {
		return pixels, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return data, compression, nil
}

// Pixels returns the frame's decoded RGB24 pixels, Width*Height*3
// bytes. A frame whose header disagrees with its data, or whose data
// fails to decompress, reports ErrMalformedPayload.
func (frame VideoFrame) Pixels() ([]byte, error) {
	if err := frame.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	rawSize := int(frame.RawSize)

	var (
		pixels []byte
		err    error
	)
	switch frame.Encoding {
	case CompressionNone:
		if len(frame.Data) != rawSize {
			err = fmt.Errorf("raw frame is %d bytes, expected %d", len(frame.Data), rawSize)
		}
		pixels = frame.Data
	case CompressionLZ4:
		pixels, err = decompressLZ4(frame.Data, rawSize)
	case CompressionZstd:
		pixels, err = decompressZstd(frame.Data, rawSize)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d %s frame: %w", ErrMalformedPayload, frame.Width, frame.Height, frame.Encoding, err)
	}
	return pixels, nil
}

// Decompressed returns a copy of the frame with Data replaced by raw
// pixels and Encoding set to CompressionNone.
func (frame VideoFrame) Decompressed() (VideoFrame, error) {
	pixels, err := frame.Pixels()
	if err != nil {
		return VideoFrame{}, err
	}
	frame.Data = pixels
	frame.Encoding = CompressionNone
	return frame, nil
}

// validate checks the header fields without touching Data.
func (frame VideoFrame) validate() error {
	if err := checkDimensions(int(frame.Width), int(frame.Height)); err != nil {
		return err
	}
	if want := int(frame.Width) * int(frame.Height) * bytesPerPixel; int(frame.RawSize) != want {
		return fmt.Errorf("raw_size %d does not match %dx%d RGB24 (%d)", frame.RawSize, frame.Width, frame.Height, want)
	}
	switch frame.Encoding {
	case CompressionNone, CompressionLZ4, CompressionZstd:
		return nil
	default:
		return fmt.Errorf("unsupported video compression %s", frame.Encoding)
	}
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxVideoDimension || height > MaxVideoDimension {
		return fmt.Errorf("frame dimensions %dx%d outside 1..%d", width, height, MaxVideoDimension)
	}
	return nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, rawSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), rawSize)
	}
	return result, nil
}
