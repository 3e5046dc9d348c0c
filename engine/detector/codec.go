package detector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// FrameMagic opens every encoded frame.
	FrameMagic = "FDF1"

	// HeaderSize is the byte length of an encoded frame header.
	HeaderSize = 24

	flagDetected = 1 << 0
)

// ErrFrameFormat is returned when an encoded frame cannot be decoded.
var ErrFrameFormat = errors.New("malformed face depth frame")

// EncodeFrame serializes a frame as a little-endian header followed by the RGBA buffer.
//
//	magic "FDF1" | flags u8 (bit0 detected) | pad u8*3 | resolution u32 | rx f32 | ry f32 | rz f32 | pixels
//
// Parameters:
//   - f: the frame to encode
//
// Returns:
//   - []byte: the encoded frame
//   - error: ErrFrameFormat if the buffer length does not match the resolution
func EncodeFrame(f Frame) ([]byte, error) {
	if f.Resolution < 0 || len(f.Buffer) != f.Resolution*f.Resolution*4 {
		return nil, fmt.Errorf("%w: %d bytes for resolution %d", ErrFrameFormat, len(f.Buffer), f.Resolution)
	}

	buf := make([]byte, HeaderSize+len(f.Buffer))
	copy(buf[0:4], FrameMagic)
	if f.Detected {
		buf[4] = flagDetected
	}
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f.Resolution))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(f.Rx))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(f.Ry))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(f.Rz))
	copy(buf[HeaderSize:], f.Buffer)
	return buf, nil
}

// DecodeFrame parses a frame produced by EncodeFrame. The returned buffer is a copy of data.
//
// Parameters:
//   - data: the encoded frame
//
// Returns:
//   - Frame: the decoded frame
//   - error: ErrFrameFormat for a short buffer, a bad magic or a payload that does not match the resolution
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: %d byte header", ErrFrameFormat, len(data))
	}
	if string(data[0:4]) != FrameMagic {
		return Frame{}, fmt.Errorf("%w: magic %q", ErrFrameFormat, data[0:4])
	}

	res := binary.LittleEndian.Uint32(data[8:12])
	payload := data[HeaderSize:]
	if uint64(len(payload)) != uint64(res)*uint64(res)*4 {
		return Frame{}, fmt.Errorf("%w: %d payload bytes for resolution %d", ErrFrameFormat, len(payload), res)
	}

	return Frame{
		Detected:   data[4]&flagDetected != 0,
		Resolution: int(res),
		Rx:         math.Float32frombits(binary.LittleEndian.Uint32(data[12:16])),
		Ry:         math.Float32frombits(binary.LittleEndian.Uint32(data[16:20])),
		Rz:         math.Float32frombits(binary.LittleEndian.Uint32(data[20:24])),
		Buffer:     append([]byte(nil), payload...),
	}, nil
}
