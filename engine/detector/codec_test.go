package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrame(t *testing.T) {
	f := Frame{
		Detected:   true,
		Resolution: 2,
		Buffer:     []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Rx:         0.25,
		Ry:         -1.5,
		Rz:         3,
	}
	data, err := EncodeFrame(f)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+16)
	assert.Equal(t, "FDF1", string(data[:4]))
	assert.Equal(t, byte(1), data[4])
	assert.Equal(t, []byte{0, 0, 0}, data[5:8])
	assert.Equal(t, []byte{2, 0, 0, 0}, data[8:12])

	got, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	// decoded buffer must not alias the input
	data[HeaderSize] = 99
	assert.Equal(t, byte(1), got.Buffer[0])
}

func TestDecodeFrameUndetectedEmpty(t *testing.T) {
	data, err := EncodeFrame(Frame{})
	require.NoError(t, err)
	got, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.False(t, got.Detected)
	assert.Equal(t, 0, got.Resolution)
	assert.Empty(t, got.Buffer)
}

func TestDecodeFrameErrors(t *testing.T) {
	valid, err := EncodeFrame(Frame{Resolution: 1, Buffer: make([]byte, 4)})
	require.NoError(t, err)

	_, err = DecodeFrame(valid[:10])
	assert.ErrorIs(t, err, ErrFrameFormat)

	bad := append([]byte(nil), valid...)
	copy(bad, "XXXX")
	_, err = DecodeFrame(bad)
	assert.ErrorIs(t, err, ErrFrameFormat)

	_, err = DecodeFrame(valid[:len(valid)-1])
	assert.ErrorIs(t, err, ErrFrameFormat)

	_, err = EncodeFrame(Frame{Resolution: 2, Buffer: make([]byte, 4)})
	assert.ErrorIs(t, err, ErrFrameFormat)
}
