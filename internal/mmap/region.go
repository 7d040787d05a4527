package mmap

// Region is a window into a Mapping, such as the payload that follows a
// file header. It does not own the memory.
type Region struct {
	parent *Mapping
	offset int
	size   int
}

// Region returns the window [offset, offset+size) of m.
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > len(m.data) {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, offset: offset, size: size}, nil
}

// Tail returns the window from offset to the end of m.
func (m *Mapping) Tail(offset int) (*Region, error) {
	return m.Region(offset, len(m.data)-offset)
}

// Bytes returns the bytes of the window, or nil once the parent is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset : r.offset+r.size]
}

// Size returns the length of the window.
func (r *Region) Size() int { return r.size }

// Advise passes an access pattern hint for the window only.
func (r *Region) Advise(pattern AccessPattern) error {
	if r.parent.closed.Load() {
		return ErrClosed
	}
	return osAdvise(r.parent.data[r.offset:r.offset+r.size], pattern)
}
