package bsi

import (
	"context"
	"io"
	"math/bits"
	"time"

	"github.com/hupe1980/bsi/bitmap"
)

// Pair is a key with its assigned value.
type Pair[K bitmap.Key] struct {
	Key   K
	Value uint64
}

// Reader is the read capability shared by Index and Immutable.
type Reader[K bitmap.Key] interface {
	GetValue(key K) (uint64, bool)
	ValueExists(key K) bool
	Cardinality() uint64
	BitDepth() int
	MinValue() uint64
	MaxValue() uint64
	Existence() bitmap.Set[K]
	Slice(i int) bitmap.Set[K]
	HasRunCompression() bool
	SerializedSizeInBytes(p Profile) uint64
	Encode(w io.Writer, p Profile) (int64, error)

	Compare(op Operation, valueOrStart, end uint64, foundSet bitmap.Set[K]) (bitmap.Set[K], error)
	MinMax(e Extremum, foundSet bitmap.Set[K]) (uint64, bool)
	Sum(foundSet bitmap.Set[K]) (sum uint64, count uint64)
	TopK(foundSet bitmap.Set[K], k int) (bitmap.Set[K], error)
	Transpose(foundSet bitmap.Set[K]) bitmap.Set[uint64]
	TransposeWithCount(foundSet bitmap.Set[K]) *Index[uint64]
	Pairs(foundSet bitmap.Set[K]) []Pair[K]

	Clone() *Index[K]

	view() *storage[K]
}

// storage is the bit-sliced representation plus the read engine. It is
// embedded by both Index and Immutable.
type storage[K bitmap.Key] struct {
	existence    bitmap.Set[K]
	slices       []bitmap.Set[K]
	minValue     uint64
	maxValue     uint64
	runOptimized bool

	opts options
}

func newStorage[K bitmap.Key](opts options) storage[K] {
	return storage[K]{
		existence:    bitmap.New[K](),
		runOptimized: opts.runOptimize,
		opts:         opts,
	}
}

func (s *storage[K]) view() *storage[K] { return s }

// GetValue returns the value of key and whether key has one.
func (s *storage[K]) GetValue(key K) (uint64, bool) {
	if !s.existence.Contains(key) {
		return 0, false
	}
	return s.valueAt(key), true
}

// valueAt decodes key without checking existence.
func (s *storage[K]) valueAt(key K) uint64 {
	var v uint64
	for i, sl := range s.slices {
		if sl.Contains(key) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// ValueExists reports whether key has a value.
func (s *storage[K]) ValueExists(key K) bool { return s.existence.Contains(key) }

// Cardinality returns the number of keys with a value.
func (s *storage[K]) Cardinality() uint64 { return s.existence.Cardinality() }

// BitDepth returns the number of slices.
func (s *storage[K]) BitDepth() int { return len(s.slices) }

// MinValue returns the lower value bound. The bound is conservative: no
// assigned value is smaller, but the bound itself may not be assigned.
func (s *storage[K]) MinValue() uint64 { return s.minValue }

// MaxValue returns the upper value bound. See MinValue.
func (s *storage[K]) MaxValue() uint64 { return s.maxValue }

// Existence returns a copy of the existence set.
func (s *storage[K]) Existence() bitmap.Set[K] { return s.existence.Clone() }

// Slice returns a copy of the keys with bit i set. Positions at or beyond
// BitDepth yield an empty set.
func (s *storage[K]) Slice(i int) bitmap.Set[K] {
	if i < 0 || i >= len(s.slices) {
		return bitmap.New[K]()
	}
	return s.slices[i].Clone()
}

// HasRunCompression reports the run-compression hint.
func (s *storage[K]) HasRunCompression() bool { return s.runOptimized }

// Clone returns a mutable deep copy.
func (s *storage[K]) Clone() *Index[K] {
	c := &Index[K]{storage: storage[K]{
		existence:    s.existence.Clone(),
		slices:       make([]bitmap.Set[K], len(s.slices)),
		minValue:     s.minValue,
		maxValue:     s.maxValue,
		runOptimized: s.runOptimized,
		opts:         s.opts,
	}}
	for i, sl := range s.slices {
		c.slices[i] = sl.Clone()
	}
	return c
}

// candidates returns foundSet ∩ existence as a fresh set. A nil foundSet
// selects every key.
func (s *storage[K]) candidates(foundSet bitmap.Set[K]) bitmap.Set[K] {
	if foundSet == nil {
		return s.existence.Clone()
	}
	return bitmap.And(foundSet, s.existence)
}

// Pairs lists the keys of foundSet ∩ existence with their values in key
// order. A nil foundSet lists every key.
func (s *storage[K]) Pairs(foundSet bitmap.Set[K]) []Pair[K] {
	fs := s.candidates(foundSet)
	out := make([]Pair[K], 0, fs.Cardinality())
	fs.Iterate(func(k K) bool {
		out = append(out, Pair[K]{Key: k, Value: s.valueAt(k)})
		return true
	})
	return out
}

// ToMap is Pairs as a map.
func (s *storage[K]) ToMap(foundSet bitmap.Set[K]) map[K]uint64 {
	fs := s.candidates(foundSet)
	out := make(map[K]uint64, fs.Cardinality())
	fs.Iterate(func(k K) bool {
		out[k] = s.valueAt(k)
		return true
	})
	return out
}

// Index is a mutable bit-sliced index over keys of type K.
//
// An Index is not safe for concurrent mutation. Concurrent reads are safe
// while no goroutine mutates it.
type Index[K bitmap.Key] struct {
	storage[K]
}

var (
	_ Reader[uint32] = (*Index[uint32])(nil)
	_ Reader[uint64] = (*Index[uint64])(nil)
)

// New creates an empty index whose bit depth grows on demand.
func New[K bitmap.Key](optFns ...Option) *Index[K] {
	return &Index[K]{storage: newStorage[K](applyOptions(optFns))}
}

// NewWithBounds creates an empty index with enough slices for maxValue.
func NewWithBounds[K bitmap.Key](minValue, maxValue uint64, optFns ...Option) (*Index[K], error) {
	if minValue > maxValue {
		return nil, &BoundsError{Min: minValue, Max: maxValue, Value: minValue}
	}
	x := New[K](optFns...)
	x.minValue, x.maxValue = minValue, maxValue
	x.grow(bits.Len64(maxValue))
	return x, nil
}

// Mutable returns r as a mutable index. It fails with ErrReadOnly when r is
// an Immutable; use Clone to obtain a mutable copy instead.
func Mutable[K bitmap.Key](r Reader[K]) (*Index[K], error) {
	switch v := r.(type) {
	case *Index[K]:
		return v, nil
	default:
		return nil, errReadOnly
	}
}

// grow appends empty slices until the depth reaches n. Existing slices keep
// their positions.
func (x *Index[K]) grow(n int) {
	for len(x.slices) < n {
		sl := bitmap.New[K]()
		if x.runOptimized {
			sl.RunOptimize()
		}
		x.slices = append(x.slices, sl)
	}
}

// widen extends the bounds to cover [lo, hi]. The bounds of an empty index
// are replaced.
func (x *Index[K]) widen(lo, hi uint64) {
	if x.existence.IsEmpty() {
		x.minValue, x.maxValue = lo, hi
		return
	}
	x.minValue = min(x.minValue, lo)
	x.maxValue = max(x.maxValue, hi)
}

func (x *Index[K]) set(key K, value uint64) {
	for i, sl := range x.slices {
		if value&(1<<uint(i)) != 0 {
			sl.Add(key)
		} else {
			sl.Remove(key)
		}
	}
	x.existence.Add(key)
}

// SetValue assigns value to key, replacing any previous value.
func (x *Index[K]) SetValue(key K, value uint64) {
	x.grow(bits.Len64(value))
	x.widen(value, value)
	x.set(key, value)
}

// SetValues assigns every pair, growing the index once for the largest
// value of the batch.
func (x *Index[K]) SetValues(pairs []Pair[K]) error {
	if len(pairs) == 0 {
		err := invalidArgument(ErrEmptyBatch)
		x.opts.logger.LogSetValues(context.Background(), 0, len(x.slices), err)
		x.opts.metricsCollector.RecordSetValues(0, 0, err)
		return err
	}

	lo, hi := pairs[0].Value, pairs[0].Value
	for _, p := range pairs[1:] {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	return x.SetValuesWithBounds(pairs, lo, hi)
}

// SetValuesWithBounds is SetValues with precomputed bounds. Every value
// must lie in [minValue, maxValue]. An empty batch only grows the index.
func (x *Index[K]) SetValuesWithBounds(pairs []Pair[K], minValue, maxValue uint64) error {
	start := time.Now()

	err := x.setValuesWithBounds(pairs, minValue, maxValue)

	x.opts.logger.LogSetValues(context.Background(), len(pairs), len(x.slices), err)
	x.opts.metricsCollector.RecordSetValues(len(pairs), time.Since(start), err)
	return err
}

func (x *Index[K]) setValuesWithBounds(pairs []Pair[K], minValue, maxValue uint64) error {
	if minValue > maxValue {
		return &BoundsError{Min: minValue, Max: maxValue, Value: minValue}
	}
	for _, p := range pairs {
		if p.Value < minValue || p.Value > maxValue {
			return &BoundsError{Min: minValue, Max: maxValue, Value: p.Value}
		}
	}

	x.grow(bits.Len64(maxValue))
	if len(pairs) == 0 {
		return nil
	}
	x.widen(minValue, maxValue)
	for _, p := range pairs {
		x.set(p.Key, p.Value)
	}
	return nil
}

// RunOptimize run-compresses every set and sets the run-compression hint.
func (x *Index[K]) RunOptimize() {
	x.existence.RunOptimize()
	for _, sl := range x.slices {
		sl.RunOptimize()
	}
	x.runOptimized = true
}

// Freeze returns a read-only copy of the index.
func (x *Index[K]) Freeze() *Immutable[K] {
	c := x.Clone()
	return &Immutable[K]{storage: c.storage}
}
