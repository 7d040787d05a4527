package bsi

import (
	"io"

	"github.com/hupe1980/bsi/bitmap"
)

// Immutable is a read-only bit-sliced index. It offers every query of
// Index but no mutation. Immutable indexes are safe for concurrent use.
//
// Immutables returned by FromBytes may reference external memory, such as
// a memory-mapped file, which stays in use until Close.
type Immutable[K bitmap.Key] struct {
	storage[K]
	closer io.Closer
}

var (
	_ Reader[uint32] = (*Immutable[uint32])(nil)
	_ Reader[uint64] = (*Immutable[uint64])(nil)
)

// WithCloser attaches c to m; Close releases it.
func (m *Immutable[K]) WithCloser(c io.Closer) *Immutable[K] {
	m.closer = c
	return m
}

// Close releases the memory backing m. m must not be used afterwards.
func (m *Immutable[K]) Close() error {
	if m.closer == nil {
		return nil
	}
	c := m.closer
	m.closer = nil
	return c.Close()
}
