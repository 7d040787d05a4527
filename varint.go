package bsi

import (
	"fmt"
	"io"
)

// The portable profile stores integers in Hadoop's zero-compressed vlong
// encoding. Values in [-112, 127] take a single byte. Otherwise the first
// byte holds the sign and the byte count (-113..-120 for non-negative,
// -121..-128 for negative values) and the magnitude follows big-endian, with
// negative values stored as their one's complement.

func vlongSize(v int64) int {
	if v >= -112 && v <= 127 {
		return 1
	}
	if v < 0 {
		v = ^v
	}
	n := 0
	for t := uint64(v); t != 0; t >>= 8 {
		n++
	}
	return n + 1
}

func appendVLong(dst []byte, v int64) []byte {
	if v >= -112 && v <= 127 {
		return append(dst, byte(v))
	}

	length := -112
	if v < 0 {
		v = ^v
		length = -120
	}
	for t := uint64(v); t != 0; t >>= 8 {
		length--
	}
	dst = append(dst, byte(int8(length)))

	n := -(length + 112)
	if length < -120 {
		n = -(length + 120)
	}
	for i := n; i > 0; i-- {
		dst = append(dst, byte(uint64(v)>>(uint(i-1)*8)))
	}
	return dst
}

// vintSize reports the total encoded length from the first byte.
func vintSize(first int8) int {
	switch {
	case first >= -112:
		return 1
	case first < -120:
		return int(-119 - int(first))
	default:
		return int(-111 - int(first))
	}
}

func vlongNegative(first int8) bool {
	return first < -120 || (first >= -112 && first < 0)
}

func readVLong(r io.ByteReader) (int64, int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	first := int8(b)
	size := vintSize(first)
	if size == 1 {
		return int64(first), 1, nil
	}

	var v uint64
	for i := 0; i < size-1; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, i + 1, err
		}
		v = v<<8 | uint64(b)
	}
	if vlongNegative(first) {
		v = ^v
	}
	return int64(v), size, nil
}

// decodeVLong reads a vlong from the head of buf.
func decodeVLong(buf []byte) (int64, int, error) {
	r := byteSliceReader{buf: buf}
	v, n, err := readVLong(&r)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, n, fmt.Errorf("decode vlong: %w", err)
	}
	return v, n, nil
}

type byteSliceReader struct {
	buf []byte
	off int
}

func (r *byteSliceReader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, io.EOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}
