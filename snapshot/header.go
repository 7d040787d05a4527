package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/internal/compress"
)

const (
	// Magic identifies a snapshot blob (ASCII "BSI1").
	Magic = "BSI1"
	// FormatVersion is the current header version.
	FormatVersion uint16 = 1
	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 32
)

var (
	ErrInvalidMagic   = errors.New("snapshot: invalid magic number")
	ErrInvalidVersion = errors.New("snapshot: unsupported format version")
	ErrInvalidHeader  = errors.New("snapshot: invalid header")
	// ErrKeyWidth is returned when a snapshot is loaded with the wrong key type.
	ErrKeyWidth = errors.New("snapshot: key width mismatch")
)

// header is the fixed prefix of every snapshot blob, little-endian:
//
//	0  magic          [4]byte
//	4  version        uint16
//	6  key width      uint8 (4 or 8)
//	7  profile        uint8
//	8  compression    uint8
//	9  reserved       [3]byte
//	12 checksum       uint32, CRC32 (IEEE) of the stored payload
//	16 payload length uint64, stored bytes following the header
//	24 raw length     uint64, payload bytes after decompression
type header struct {
	KeyWidth    uint8
	Profile     bsi.Profile
	Compression compress.Algorithm
	Checksum    uint32
	PayloadLen  uint64
	RawLen      uint64
}

func newHeader(width uint8, p bsi.Profile, alg compress.Algorithm, raw, stored []byte) header {
	return header{
		KeyWidth:    width,
		Profile:     p,
		Compression: alg,
		Checksum:    crc32.ChecksumIEEE(stored),
		PayloadLen:  uint64(len(stored)),
		RawLen:      uint64(len(raw)),
	}
}

func (h header) marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint16(b[4:], FormatVersion)
	b[6] = h.KeyWidth
	b[7] = uint8(h.Profile)
	b[8] = uint8(h.Compression)
	binary.LittleEndian.PutUint32(b[12:], h.Checksum)
	binary.LittleEndian.PutUint64(b[16:], h.PayloadLen)
	binary.LittleEndian.PutUint64(b[24:], h.RawLen)
	return b
}

func parseHeader(b []byte) (header, error) {
	if len(b) < HeaderSize {
		return header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	if string(b[0:4]) != Magic {
		return header{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(b[4:]); v != FormatVersion {
		return header{}, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}

	h := header{
		KeyWidth:    b[6],
		Profile:     bsi.Profile(b[7]),
		Compression: compress.Algorithm(b[8]),
		Checksum:    binary.LittleEndian.Uint32(b[12:]),
		PayloadLen:  binary.LittleEndian.Uint64(b[16:]),
		RawLen:      binary.LittleEndian.Uint64(b[24:]),
	}
	switch {
	case h.KeyWidth != 4 && h.KeyWidth != 8:
		return header{}, fmt.Errorf("%w: key width %d", ErrInvalidHeader, h.KeyWidth)
	case h.Profile != bsi.Portable && h.Profile != bsi.Fixed:
		return header{}, fmt.Errorf("%w: profile %d", ErrInvalidHeader, h.Profile)
	case !h.Compression.Valid():
		return header{}, fmt.Errorf("%w: compression %d", ErrInvalidHeader, h.Compression)
	case h.Compression == compress.None && h.RawLen != h.PayloadLen:
		return header{}, fmt.Errorf("%w: raw length %d != payload length %d", ErrInvalidHeader, h.RawLen, h.PayloadLen)
	}
	return h, nil
}

// payload returns the stored payload of blob and verifies its checksum.
func (h header) payload(blob []byte) ([]byte, error) {
	if uint64(len(blob)-HeaderSize) < h.PayloadLen {
		return nil, fmt.Errorf("%w: payload truncated", ErrInvalidHeader)
	}
	p := blob[HeaderSize : HeaderSize+int(h.PayloadLen)]
	if err := verifyChecksum(p, h.Checksum); err != nil {
		return nil, err
	}
	return p, nil
}
