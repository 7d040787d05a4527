package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer buffers writes into blocks and emits each block framed and
// compressed.
type Writer struct {
	w         io.Writer
	alg       Algorithm
	blockSize int
	buffer    *bytes.Buffer
	written   int64
}

// NewWriter returns a Writer. A non-positive blockSize selects
// DefaultBlockSize.
func NewWriter(w io.Writer, alg Algorithm, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{
		w:         w,
		alg:       alg,
		blockSize: blockSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

func (c *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buffer.Len()
		if space <= 0 {
			if err := c.flushBlock(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		n, _ := c.buffer.Write(p[:min(len(p), space)])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (c *Writer) flushBlock() error {
	if c.buffer.Len() == 0 {
		return nil
	}
	framed, err := encodeBlock(c.buffer.Bytes(), c.alg)
	if err != nil {
		return err
	}
	n, err := c.w.Write(framed)
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.buffer.Reset()
	return nil
}

// Flush writes the pending partial block.
func (c *Writer) Flush() error {
	return c.flushBlock()
}

// BytesWritten returns the number of framed bytes written so far.
func (c *Writer) BytesWritten() int64 {
	return c.written
}

// Reader walks the blocks of an in-memory stream.
type Reader struct {
	data   []byte
	offset int
	alg    Algorithm
}

// NewReader returns a Reader over data.
func NewReader(data []byte, alg Algorithm) *Reader {
	return &Reader{data: data, alg: alg}
}

// Next returns the next decoded block, or io.EOF after the last one.
// Raw blocks alias the underlying data.
func (c *Reader) Next() ([]byte, error) {
	rest := c.data[c.offset:]
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if len(rest) < headerSize {
		return nil, fmt.Errorf("%w: truncated header at offset %d", ErrCorrupt, c.offset)
	}

	size := binary.LittleEndian.Uint32(rest[0:])
	stored := binary.LittleEndian.Uint32(rest[4:])

	if stored == 0 {
		if uint64(len(rest)) < headerSize+uint64(size) {
			return nil, fmt.Errorf("%w: raw block extends beyond data", ErrCorrupt)
		}
		c.offset += headerSize + int(size)
		return rest[headerSize : headerSize+int(size)], nil
	}

	if uint64(len(rest)) < headerSize+uint64(stored) {
		return nil, fmt.Errorf("%w: compressed block extends beyond data", ErrCorrupt)
	}
	block, err := decodeBlock(rest[headerSize:headerSize+int(stored)], size, c.alg)
	if err != nil {
		return nil, err
	}
	c.offset += headerSize + int(stored)
	return block, nil
}
