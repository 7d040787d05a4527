package bsi

import (
	"context"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bsi/bitmap"
)

// batcher pulls ascending, disjoint key batches from a set on demand, so
// only the batches in flight hold key buffers.
type batcher[K bitmap.Key] struct {
	it   bitmap.ManyIterator[K]
	size int
}

func newBatcher[K bitmap.Key](fs bitmap.Set[K], size int) *batcher[K] {
	return &batcher[K]{it: fs.ManyIterator(), size: size}
}

// next fills a fresh buffer and returns nil when the set is exhausted.
func (b *batcher[K]) next() []K {
	buf := make([]K, b.size)
	n := b.it.NextMany(buf)
	if n == 0 {
		return nil
	}
	return buf[:n]
}

// fanOut runs fn for every batch of foundSet ∩ existence and returns the
// per-batch results in batch order. Memory for a batch is reserved with the
// controller before its buffer is allocated.
func fanOut[K bitmap.Key, R any](ctx context.Context, s *storage[K], name string, foundSet bitmap.Set[K], o parallelOptions, fn func(batch []K) R) (results []R, err error) {
	start := time.Now()
	var slots []*R
	defer func() {
		s.opts.logger.LogParallel(ctx, name, len(slots), time.Since(start), err)
		s.opts.metricsCollector.RecordParallel(name, len(slots), time.Since(start), err)
	}()

	fs := s.candidates(foundSet)
	if fs.IsEmpty() {
		return nil, ctx.Err()
	}
	size := o.batchSizeFor(fs.Cardinality())
	src := newBatcher(fs, size)

	var zero K
	mem := int64(unsafe.Sizeof(zero)) * int64(size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	var produceErr error
	for gctx.Err() == nil {
		if produceErr = o.controller.AcquireMemory(mem); produceErr != nil {
			break
		}
		batch := src.next()
		if batch == nil {
			o.controller.ReleaseMemory(mem)
			break
		}
		slot := new(R)
		slots = append(slots, slot)

		g.Go(func() error {
			defer o.controller.ReleaseMemory(mem)
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := o.controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.controller.ReleaseWorker()

			*slot = fn(batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if produceErr != nil {
		return nil, produceErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results = make([]R, len(slots))
	for i, slot := range slots {
		results[i] = *slot
	}
	return results, nil
}

// ParallelCompare is Compare evaluated over disjoint batches of the found
// set. The result equals Compare's.
func (s *storage[K]) ParallelCompare(ctx context.Context, op Operation, valueOrStart, end uint64, foundSet bitmap.Set[K], optFns ...ParallelOption) (bitmap.Set[K], error) {
	if !op.valid() {
		return nil, &OperationError{Op: op}
	}
	parts, err := fanOut(ctx, s, "compare", foundSet, applyParallelOptions(optFns), func(batch []K) bitmap.Set[K] {
		res, _, _ := s.compare(op, valueOrStart, end, bitmap.Of(batch...), true)
		return res
	})
	if err != nil {
		return nil, err
	}
	return bitmap.FastOr(parts...), nil
}

// ParallelIn returns the keys of foundSet ∩ existence whose value is one of
// values.
func (s *storage[K]) ParallelIn(ctx context.Context, foundSet bitmap.Set[K], values []uint64, optFns ...ParallelOption) (bitmap.Set[K], error) {
	if len(values) == 0 {
		return bitmap.New[K](), nil
	}
	want := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}

	parts, err := fanOut(ctx, s, "in", foundSet, applyParallelOptions(optFns), func(batch []K) bitmap.Set[K] {
		out := bitmap.New[K]()
		for _, k := range batch {
			if _, ok := want[s.valueAt(k)]; ok {
				out.Add(k)
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return bitmap.FastOr(parts...), nil
}

// ParallelTransposeWithCount is TransposeWithCount evaluated over disjoint
// batches. Per-batch counts are summed with Add.
func (s *storage[K]) ParallelTransposeWithCount(ctx context.Context, foundSet bitmap.Set[K], optFns ...ParallelOption) (*Index[uint64], error) {
	parts, err := fanOut(ctx, s, "transpose_count", foundSet, applyParallelOptions(optFns), func(batch []K) *Index[uint64] {
		return s.transposeWithCount(bitmap.Of(batch...))
	})
	if err != nil {
		return nil, err
	}

	out := &Index[uint64]{storage: newStorage[uint64](s.opts)}
	for _, p := range parts {
		out.Add(p)
	}
	return out, nil
}
