package bsi

import (
	"context"
	"time"

	"github.com/hupe1980/bsi/bitmap"
)

// Sum returns Σ value(k) over the keys of foundSet together with
// |foundSet|. Both are zero for a nil or empty foundSet.
func (s *storage[K]) Sum(foundSet bitmap.Set[K]) (sum uint64, count uint64) {
	if foundSet == nil || foundSet.IsEmpty() {
		return 0, 0
	}
	start := time.Now()

	count = foundSet.Cardinality()
	for i, sl := range s.slices {
		sum += (uint64(1) << uint(i)) * sl.AndCardinality(foundSet)
	}

	s.opts.metricsCollector.RecordAggregate("sum", time.Since(start), nil)
	return sum, count
}

// TopK returns the k keys of foundSet ∩ existence with the largest values.
// Ties at the boundary keep the smallest keys. A nil foundSet selects every
// key. k must lie in [0, |foundSet ∩ existence|].
func (s *storage[K]) TopK(foundSet bitmap.Set[K], k int) (bitmap.Set[K], error) {
	start := time.Now()

	res, err := s.topK(foundSet, k)

	s.opts.logger.LogTopK(context.Background(), k, err)
	s.opts.metricsCollector.RecordAggregate("topk", time.Since(start), err)
	return res, err
}

func (s *storage[K]) topK(foundSet bitmap.Set[K], k int) (bitmap.Set[K], error) {
	e := s.candidates(foundSet)
	if k < 0 || uint64(k) > e.Cardinality() {
		return nil, invalidArgument(ErrInvalidK)
	}
	if k == 0 {
		return bitmap.New[K](), nil
	}

	want := uint64(k)
	g := bitmap.New[K]()
	for i := len(s.slices) - 1; i >= 0; i-- {
		hit := bitmap.And(e, s.slices[i])
		x := bitmap.Or(g, hit)
		switch n := x.Cardinality(); {
		case n > want:
			e = hit
		case n < want:
			g = x
			e.AndNot(s.slices[i])
		default:
			return x, nil
		}
	}

	// Every key left in e carries the same value; take as many as needed.
	need := int(want - g.Cardinality())
	if need > 0 {
		buf := make([]K, need)
		n := e.ManyIterator().NextMany(buf)
		g.AddMany(buf[:n])
	}
	return g, nil
}
