// Package compress implements the block compression used for snapshot
// payloads.
//
// A stream is a sequence of blocks, each prefixed by an 8-byte header:
//
//	[uncompressed size uint32][compressed size uint32][data]
//
// A compressed size of zero marks a block stored raw. Blocks that shrink by
// less than ten percent are stored raw.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies a block compression algorithm.
type Algorithm uint8

const (
	// None stores the payload as is, without block headers.
	None Algorithm = iota
	// LZ4 favors speed.
	LZ4
	// ZSTD favors ratio.
	ZSTD
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a <= ZSTD
}

const (
	// DefaultBlockSize is the uncompressed size of a full block.
	DefaultBlockSize = 256 * 1024

	headerSize = 8
)

var (
	// ErrUnknownAlgorithm is returned for an algorithm outside None, LZ4, ZSTD.
	ErrUnknownAlgorithm = errors.New("compress: unknown algorithm")
	// ErrCorrupt is returned when a block header or body is inconsistent.
	ErrCorrupt = errors.New("compress: corrupt block")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// Compress encodes data as a block stream. None returns data unchanged.
func Compress(data []byte, alg Algorithm) ([]byte, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
	}
	if alg == None {
		return data, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data)/2 + headerSize)
	w := NewWriter(&buf, alg, DefaultBlockSize)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes a block stream produced by Compress.
func Decompress(data []byte, alg Algorithm) ([]byte, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
	}
	if alg == None {
		return data, nil
	}

	r := NewReader(data, alg)
	var out []byte
	for {
		block, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
}

// encodeBlock returns the framed form of one block.
func encodeBlock(data []byte, alg Algorithm) ([]byte, error) {
	var compressed []byte
	switch alg {
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		compressed = dst[:n]
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	raw := len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9
	if raw {
		compressed = data
	}

	out := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	if !raw {
		binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	}
	copy(out[headerSize:], compressed)
	return out, nil
}

func decodeBlock(body []byte, size uint32, alg Algorithm) ([]byte, error) {
	out := make([]byte, size)
	switch alg {
	case LZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, n, size)
		}
		return out, nil
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, len(decoded), size)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
	}
}
