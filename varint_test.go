package bsi

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLong_Vectors(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{-1, []byte{0xff}},
		{-112, []byte{0x90}},
		{128, []byte{0x8f, 0x80}},
		{255, []byte{0x8f, 0xff}},
		{256, []byte{0x8e, 0x01, 0x00}},
		{-113, []byte{0x87, 0x70}},
		{math.MaxInt64, []byte{0x88, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{math.MinInt64, []byte{0x80, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		got := appendVLong(nil, tt.v)
		assert.Equal(t, tt.want, got, "encode %d", tt.v)
		assert.Equal(t, len(tt.want), vlongSize(tt.v), "size %d", tt.v)

		v, n, err := decodeVLong(tt.want)
		require.NoError(t, err)
		assert.Equal(t, tt.v, v)
		assert.Equal(t, len(tt.want), n)
	}
}

func TestVLong_RoundTrip(t *testing.T) {
	for _, v := range []int64{1 << 8, 1<<16 - 1, 1 << 16, 1 << 24, 1 << 32, 1<<40 + 7, 1 << 48, 1 << 56, -1 << 8, -1 << 33, -123456789} {
		buf := appendVLong(nil, v)
		require.Len(t, buf, vlongSize(v))
		got, _, err := decodeVLong(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	// unsigned values above MaxInt64 travel as negative vlongs
	mx := uint64(math.MaxUint64)
	buf := appendVLong(nil, int64(mx))
	got, _, err := decodeVLong(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), uint64(got))
}

func TestVLong_Truncated(t *testing.T) {
	_, _, err := decodeVLong(nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = decodeVLong([]byte{0x8e, 0x01})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
