package bsi

import (
	"context"
	"time"

	"github.com/hupe1980/bsi/bitmap"
)

// maxBitDepth is the widest value the index represents.
const maxBitDepth = 64

// Add accumulates other into x: keys present in both end up with the sum
// of their values, keys present only in other are adopted. Sums wrap
// modulo 2^64. A nil or empty operand is a no-op.
func (x *Index[K]) Add(other Reader[K]) {
	if other == nil {
		return
	}
	o := other.view()
	if o.existence.IsEmpty() {
		return
	}
	start := time.Now()

	// Adding an index to itself would feed carries back into the addend.
	if o == &x.storage {
		o = &o.Clone().storage
	}

	x.grow(len(o.slices))
	x.existence.Or(o.existence)
	for i, sl := range o.slices {
		x.addDigit(sl, i)
	}
	x.recomputeBounds()

	x.opts.logger.LogAdd(context.Background(), o.existence.Cardinality(), len(x.slices))
	x.opts.metricsCollector.RecordAdd(time.Since(start))
}

// addDigit adds addend into slice i and ripples the carry upwards.
func (x *Index[K]) addDigit(addend bitmap.Set[K], i int) {
	for i < maxBitDepth && !addend.IsEmpty() {
		x.grow(i + 1)
		carry := bitmap.And(x.slices[i], addend)
		x.slices[i].Xor(addend)
		addend = carry
		i++
	}
}

// recomputeBounds derives exact bounds with top-down sweeps over the slices.
func (x *Index[K]) recomputeBounds() {
	if x.existence.IsEmpty() {
		x.minValue, x.maxValue = 0, 0
		return
	}
	x.minValue = x.extremum(Min, x.existence.Clone())
	x.maxValue = x.extremum(Max, x.existence.Clone())
}

// Merge adds the keys of other to x. The key sets must be disjoint, else
// Merge fails with ErrKeysOverlap and x is left unchanged. A nil or empty
// operand is a no-op.
func (x *Index[K]) Merge(other Reader[K]) error {
	if other == nil {
		return nil
	}
	o := other.view()
	if o.existence.IsEmpty() {
		return nil
	}
	start := time.Now()

	err := x.merge(o)

	x.opts.logger.LogMerge(context.Background(), o.existence.Cardinality(), err)
	x.opts.metricsCollector.RecordMerge(time.Since(start), err)
	return err
}

func (x *Index[K]) merge(o *storage[K]) error {
	if x.existence.Intersects(o.existence) {
		return invalidArgument(ErrKeysOverlap)
	}

	x.grow(len(o.slices))
	for i, sl := range o.slices {
		x.slices[i].Or(sl)
	}
	x.widen(o.minValue, o.maxValue)
	x.existence.Or(o.existence)
	x.runOptimized = x.runOptimized || o.runOptimized
	return nil
}
