package bsi

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/bsi/bitmap"
)

// Profile selects the binary layout. Profiles are not self-describing: the
// reader must use the profile the writer used.
type Profile int

const (
	// Portable stores the bounds and the bit depth as Hadoop vlongs.
	Portable Profile = iota
	// Fixed stores the bounds as big-endian integers of the key width (4 or
	// 8 bytes) and the bit depth as a big-endian uint32. It is the layout
	// used for memory-mapped indexes.
	Fixed
)

func (p Profile) String() string {
	switch p {
	case Portable:
		return "portable"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// ErrInvalidEncoding is returned when a serialized index is malformed.
var ErrInvalidEncoding = errors.New("invalid index encoding")

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r   io.Reader
	n   int64
	one [1]byte
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(c, c.one[:]); err != nil {
		return 0, err
	}
	return c.one[0], nil
}

// boundsWidth is the byte width of a bound in the fixed profile.
func boundsWidth[K bitmap.Key]() int {
	return bitmap.Width[K]() / 8
}

// SerializedSizeInBytes returns the exact size Encode produces for p.
func (s *storage[K]) SerializedSizeInBytes(p Profile) uint64 {
	size := 1 + s.existence.SerializedSizeInBytes()
	for _, sl := range s.slices {
		size += sl.SerializedSizeInBytes()
	}
	if p == Fixed {
		return size + uint64(2*boundsWidth[K]()+4)
	}
	return size +
		uint64(vlongSize(int64(s.minValue))) +
		uint64(vlongSize(int64(s.maxValue))) +
		uint64(vlongSize(int64(len(s.slices))))
}

// WriteTo encodes the index in the Portable profile.
func (s *storage[K]) WriteTo(w io.Writer) (int64, error) {
	return s.Encode(w, Portable)
}

// MarshalBinary encodes the index in the Portable profile.
func (s *storage[K]) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(s.SerializedSizeInBytes(Portable)))
	if _, err := s.Encode(&buf, Portable); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes min, max, the run-compression flag, the existence set, the
// bit depth and every slice, in that order.
func (s *storage[K]) Encode(w io.Writer, p Profile) (int64, error) {
	cw := &countingWriter{w: w}
	if err := s.encode(cw, p); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (s *storage[K]) encode(w io.Writer, p Profile) error {
	var hdr []byte
	switch p {
	case Portable:
		hdr = appendVLong(hdr, int64(s.minValue))
		hdr = appendVLong(hdr, int64(s.maxValue))
	case Fixed:
		var err error
		if hdr, err = appendFixedBounds[K](hdr, s.minValue, s.maxValue); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: profile %d", ErrInvalidArgument, int(p))
	}

	if s.runOptimized {
		hdr = append(hdr, 1)
	} else {
		hdr = append(hdr, 0)
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := s.existence.WriteTo(w); err != nil {
		return fmt.Errorf("write existence: %w", err)
	}

	hdr = hdr[:0]
	if p == Portable {
		hdr = appendVLong(hdr, int64(len(s.slices)))
	} else {
		hdr = binary.BigEndian.AppendUint32(hdr, uint32(len(s.slices)))
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	for i, sl := range s.slices {
		if _, err := sl.WriteTo(w); err != nil {
			return fmt.Errorf("write slice %d: %w", i, err)
		}
	}
	return nil
}

func appendFixedBounds[K bitmap.Key](dst []byte, lo, hi uint64) ([]byte, error) {
	if boundsWidth[K]() == 4 {
		if lo > math.MaxUint32 || hi > math.MaxUint32 {
			return nil, invalidArgument(ErrValueOverflow)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(lo))
		return binary.BigEndian.AppendUint32(dst, uint32(hi)), nil
	}
	dst = binary.BigEndian.AppendUint64(dst, lo)
	return binary.BigEndian.AppendUint64(dst, hi), nil
}

func readFixedUint(r io.Reader, width int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:width]); err != nil {
		return 0, err
	}
	if width == 4 {
		return uint64(binary.BigEndian.Uint32(buf[:4])), nil
	}
	return binary.BigEndian.Uint64(buf[:8]), nil
}

func checkBitDepth(depth int64) error {
	if depth < 0 || depth > maxBitDepth {
		return fmt.Errorf("%w: bit depth %d", ErrInvalidEncoding, depth)
	}
	return nil
}

// ReadFrom replaces x with an index decoded in the Portable profile.
func (x *Index[K]) ReadFrom(r io.Reader) (int64, error) {
	return x.Decode(r, Portable)
}

// UnmarshalBinary replaces x with an index decoded in the Portable profile.
func (x *Index[K]) UnmarshalBinary(data []byte) error {
	_, err := x.Decode(bytes.NewReader(data), Portable)
	return err
}

// Decode replaces x with an index decoded in profile p. The stored bit
// depth is used as is. x is unchanged when decoding fails.
func (x *Index[K]) Decode(r io.Reader, p Profile) (int64, error) {
	cr := &countingReader{r: r}
	s, err := decodeStorage[K](cr, p, x.opts)
	x.opts.logger.LogDecode(context.Background(), p, cr.n, err)
	if err != nil {
		return cr.n, err
	}
	x.storage = s
	return cr.n, nil
}

// Decode reads an index encoded in profile p.
func Decode[K bitmap.Key](r io.Reader, p Profile, optFns ...Option) (*Index[K], error) {
	x := New[K](optFns...)
	if _, err := x.Decode(r, p); err != nil {
		return nil, err
	}
	return x, nil
}

func decodeStorage[K bitmap.Key](r *countingReader, p Profile, opts options) (storage[K], error) {
	s := newStorage[K](opts)

	switch p {
	case Portable:
		lo, _, err := readVLong(r)
		if err != nil {
			return s, fmt.Errorf("read min: %w", eofToUnexpected(err))
		}
		hi, _, err := readVLong(r)
		if err != nil {
			return s, fmt.Errorf("read max: %w", eofToUnexpected(err))
		}
		s.minValue, s.maxValue = uint64(lo), uint64(hi)
	case Fixed:
		w := boundsWidth[K]()
		lo, err := readFixedUint(r, w)
		if err != nil {
			return s, fmt.Errorf("read min: %w", eofToUnexpected(err))
		}
		hi, err := readFixedUint(r, w)
		if err != nil {
			return s, fmt.Errorf("read max: %w", eofToUnexpected(err))
		}
		s.minValue, s.maxValue = lo, hi
	default:
		return s, fmt.Errorf("%w: profile %d", ErrInvalidArgument, int(p))
	}

	flag, err := r.ReadByte()
	if err != nil {
		return s, fmt.Errorf("read run flag: %w", eofToUnexpected(err))
	}
	s.runOptimized = flag != 0

	if _, err := s.existence.ReadFrom(r); err != nil {
		return s, fmt.Errorf("read existence: %w", err)
	}

	var depth int64
	if p == Portable {
		if depth, _, err = readVLong(r); err != nil {
			return s, fmt.Errorf("read bit depth: %w", eofToUnexpected(err))
		}
	} else {
		d, err := readFixedUint(r, 4)
		if err != nil {
			return s, fmt.Errorf("read bit depth: %w", eofToUnexpected(err))
		}
		depth = int64(d)
	}
	if err := checkBitDepth(depth); err != nil {
		return s, err
	}

	s.slices = make([]bitmap.Set[K], depth)
	for i := range s.slices {
		sl := bitmap.New[K]()
		if _, err := sl.ReadFrom(r); err != nil {
			return s, fmt.Errorf("read slice %d: %w", i, err)
		}
		s.slices[i] = sl
	}
	return s, nil
}

func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// FromBytes builds a read-only index over buf without copying the bitmap
// payloads. buf must stay valid and unmodified while the index is in use.
func FromBytes[K bitmap.Key](buf []byte, p Profile, optFns ...Option) (*Immutable[K], error) {
	s := newStorage[K](applyOptions(optFns))
	off := 0

	switch p {
	case Portable:
		lo, n, err := decodeVLong(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read min: %w", err)
		}
		off += n
		hi, n, err := decodeVLong(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read max: %w", err)
		}
		off += n
		s.minValue, s.maxValue = uint64(lo), uint64(hi)
	case Fixed:
		w := boundsWidth[K]()
		if len(buf) < 2*w {
			return nil, fmt.Errorf("read bounds: %w", io.ErrUnexpectedEOF)
		}
		if w == 4 {
			s.minValue = uint64(binary.BigEndian.Uint32(buf[0:4]))
			s.maxValue = uint64(binary.BigEndian.Uint32(buf[4:8]))
		} else {
			s.minValue = binary.BigEndian.Uint64(buf[0:8])
			s.maxValue = binary.BigEndian.Uint64(buf[8:16])
		}
		off = 2 * w
	default:
		return nil, fmt.Errorf("%w: profile %d", ErrInvalidArgument, int(p))
	}

	if off >= len(buf) {
		return nil, fmt.Errorf("read run flag: %w", io.ErrUnexpectedEOF)
	}
	s.runOptimized = buf[off] != 0
	off++

	n, err := s.existence.FromBuffer(buf[off:])
	if err != nil {
		return nil, fmt.Errorf("read existence: %w", err)
	}
	off += int(n)

	var depth int64
	if p == Portable {
		d, n, err := decodeVLong(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read bit depth: %w", err)
		}
		depth = d
		off += n
	} else {
		if len(buf)-off < 4 {
			return nil, fmt.Errorf("read bit depth: %w", io.ErrUnexpectedEOF)
		}
		depth = int64(binary.BigEndian.Uint32(buf[off:]))
		off += 4
	}
	if err := checkBitDepth(depth); err != nil {
		return nil, err
	}

	s.slices = make([]bitmap.Set[K], depth)
	for i := range s.slices {
		sl := bitmap.New[K]()
		n, err := sl.FromBuffer(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read slice %d: %w", i, err)
		}
		off += int(n)
		s.slices[i] = sl
	}
	return &Immutable[K]{storage: s}, nil
}
