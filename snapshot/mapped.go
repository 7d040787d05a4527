package snapshot

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/bitmap"
	"github.com/hupe1980/bsi/internal/compress"
	"github.com/hupe1980/bsi/internal/mmap"
)

// ErrNotMappable is returned by OpenMapped for compressed snapshots.
var ErrNotMappable = errors.New("snapshot: compressed snapshots cannot be mapped")

// OpenMapped32 maps the snapshot blob at path and serves queries from the
// mapping without decoding the bitmaps. Close the result to unmap.
//
// With a blobstore.LocalStore the path of a saved version is
// store.Path(info.Blob).
func OpenMapped32(path string, optFns ...bsi.Option) (*bsi.Immutable[uint32], error) {
	return openMapped[uint32](path, optFns)
}

// OpenMapped64 is OpenMapped32 for 64-bit keys.
func OpenMapped64(path string, optFns ...bsi.Option) (*bsi.Immutable[uint64], error) {
	return openMapped[uint64](path, optFns)
}

func openMapped[K bitmap.Key](path string, optFns []bsi.Option) (*bsi.Immutable[K], error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	x, err := mapIndex[K](m, optFns)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("snapshot: map %s: %w", path, err)
	}
	return x.WithCloser(m), nil
}

func mapIndex[K bitmap.Key](m *mmap.Mapping, optFns []bsi.Option) (*bsi.Immutable[K], error) {
	hdr, err := parseHeader(m.Bytes())
	if err != nil {
		return nil, err
	}
	if want := keyWidthOf[K](); hdr.KeyWidth != want {
		return nil, fmt.Errorf("%w: stored %d bytes, want %d", ErrKeyWidth, hdr.KeyWidth, want)
	}
	if hdr.Compression != compress.None {
		return nil, fmt.Errorf("%w: %s", ErrNotMappable, hdr.Compression)
	}

	body, err := m.Tail(HeaderSize)
	if err != nil {
		return nil, err
	}
	payload, err := hdr.payload(m.Bytes())
	if err != nil {
		return nil, err
	}
	_ = body.Advise(mmap.AccessRandom)

	return bsi.FromBytes[K](payload, hdr.Profile, optFns...)
}
