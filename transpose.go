package bsi

import (
	"time"

	"github.com/hupe1980/bsi/bitmap"
)

// Transpose returns the distinct values held by the keys of
// foundSet ∩ existence.
func (s *storage[K]) Transpose(foundSet bitmap.Set[K]) bitmap.Set[uint64] {
	start := time.Now()

	out := bitmap.New[uint64]()
	s.forEachValue(s.candidates(foundSet), func(_ K, v uint64) {
		out.Add(v)
	})

	s.opts.metricsCollector.RecordAggregate("transpose", time.Since(start), nil)
	return out
}

// TransposeWithCount returns an index keyed by the distinct values of
// foundSet ∩ existence whose value is the number of keys holding it.
func (s *storage[K]) TransposeWithCount(foundSet bitmap.Set[K]) *Index[uint64] {
	start := time.Now()

	out := s.transposeWithCount(s.candidates(foundSet))

	s.opts.metricsCollector.RecordAggregate("transpose_count", time.Since(start), nil)
	return out
}

func (s *storage[K]) transposeWithCount(fs bitmap.Set[K]) *Index[uint64] {
	counts := make(map[uint64]uint64)
	s.forEachValue(fs, func(_ K, v uint64) {
		counts[v]++
	})

	out := &Index[uint64]{storage: newStorage[uint64](s.opts)}
	if len(counts) == 0 {
		return out
	}
	pairs := make([]Pair[uint64], 0, len(counts))
	for v, n := range counts {
		pairs = append(pairs, Pair[uint64]{Key: v, Value: n})
	}
	_ = out.SetValues(pairs) // non-empty
	return out
}

// forEachValue decodes every key of fs in ascending order.
func (s *storage[K]) forEachValue(fs bitmap.Set[K], fn func(K, uint64)) {
	it := fs.ManyIterator()
	buf := make([]K, min(fs.Cardinality(), MaxBatchSize))
	for n := it.NextMany(buf); n > 0; n = it.NextMany(buf) {
		for _, k := range buf[:n] {
			fn(k, s.valueAt(k))
		}
	}
}
