package bitmap

import (
	"io"
)

// Key is the set of supported key widths.
type Key interface {
	uint32 | uint64
}

// ManyIterator yields keys in ascending order in batches.
type ManyIterator[K Key] interface {
	// NextMany fills buf and returns the number of keys written.
	// A return value of 0 means the iterator is exhausted.
	NextMany(buf []K) int
}

// Set is a compressed set of keys.
//
// Implementations are not safe for concurrent mutation. Concurrent reads
// are safe as long as no goroutine mutates the set.
type Set[K Key] interface {
	Add(x K)
	AddMany(xs []K)
	Remove(x K)
	Contains(x K) bool
	Cardinality() uint64
	IsEmpty() bool
	// Minimum and Maximum panic or return zero on an empty set, depending
	// on the implementation. Check IsEmpty first.
	Minimum() K
	Maximum() K
	Clone() Set[K]
	Clear()

	And(other Set[K])
	Or(other Set[K])
	Xor(other Set[K])
	AndNot(other Set[K])
	AndCardinality(other Set[K]) uint64
	Intersects(other Set[K]) bool
	Equals(other Set[K]) bool

	// Iterate calls fn for each key in ascending order until fn returns false.
	Iterate(fn func(K) bool)
	ManyIterator() ManyIterator[K]
	ToArray() []K

	RunOptimize()
	HasRunCompression() bool

	// SerializedSizeInBytes is the exact number of bytes WriteTo produces.
	SerializedSizeInBytes() uint64
	WriteTo(w io.Writer) (int64, error)
	ReadFrom(r io.Reader) (int64, error)
	// FromBuffer loads the set from buf without copying where possible.
	// buf must not be modified while the set is in use.
	FromBuffer(buf []byte) (int64, error)
}

// Width returns the key width in bits (32 or 64).
func Width[K Key]() int {
	var zero K
	if _, ok := any(zero).(uint32); ok {
		return 32
	}
	return 64
}

// New returns an empty set for the key width of K.
func New[K Key]() Set[K] {
	var zero K
	switch any(zero).(type) {
	case uint32:
		return any(NewRoaring32()).(Set[K])
	default:
		return any(NewRoaring64()).(Set[K])
	}
}

// Of returns a set holding keys.
func Of[K Key](keys ...K) Set[K] {
	s := New[K]()
	s.AddMany(keys)
	return s
}

// And returns the intersection of a and b.
func And[K Key](a, b Set[K]) Set[K] {
	c := a.Clone()
	c.And(b)
	return c
}

// Or returns the union of a and b.
func Or[K Key](a, b Set[K]) Set[K] {
	c := a.Clone()
	c.Or(b)
	return c
}

// Xor returns the symmetric difference of a and b.
func Xor[K Key](a, b Set[K]) Set[K] {
	c := a.Clone()
	c.Xor(b)
	return c
}

// AndNot returns the keys of a not present in b.
func AndNot[K Key](a, b Set[K]) Set[K] {
	c := a.Clone()
	c.AndNot(b)
	return c
}

// FastOr returns the union of all sets. Nil entries are skipped.
func FastOr[K Key](sets ...Set[K]) Set[K] {
	switch ss := any(sets).(type) {
	case []Set[uint32]:
		bms := make([]*Roaring32, 0, len(ss))
		for _, s := range ss {
			if s != nil {
				bms = append(bms, toRoaring32(s))
			}
		}
		return any(fastOr32(bms)).(Set[K])
	case []Set[uint64]:
		bms := make([]*Roaring64, 0, len(ss))
		for _, s := range ss {
			if s != nil {
				bms = append(bms, toRoaring64(s))
			}
		}
		return any(fastOr64(bms)).(Set[K])
	}

	out := New[K]()
	for _, s := range sets {
		if s != nil {
			out.Or(s)
		}
	}
	return out
}
