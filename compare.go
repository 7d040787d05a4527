package bsi

import (
	"context"
	"math/bits"
	"time"

	"github.com/hupe1980/bsi/bitmap"
)

// Compare returns the keys of foundSet ∩ existence whose value satisfies op.
// valueOrStart is the predicate, end is only used by RANGE. A nil foundSet
// selects every key.
//
// GE and the lower bound of RANGE use Owen Kaser's spine algorithm, every
// other operation uses O'Neil's bit-sliced comparison.
func (s *storage[K]) Compare(op Operation, valueOrStart, end uint64, foundSet bitmap.Set[K]) (bitmap.Set[K], error) {
	start := time.Now()

	res, short, err := s.compare(op, valueOrStart, end, foundSet, true)

	var matches uint64
	if res != nil {
		matches = res.Cardinality()
	}
	s.opts.logger.LogCompare(context.Background(), op, matches, short, err)
	s.opts.metricsCollector.RecordCompare(op, time.Since(start), err)
	return res, err
}

// EQ is Compare(EQ, value, 0, foundSet).
func (s *storage[K]) EQ(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(EQ, value, 0, foundSet)
}

// NEQ is Compare(NEQ, value, 0, foundSet).
func (s *storage[K]) NEQ(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(NEQ, value, 0, foundSet)
}

// LT is Compare(LT, value, 0, foundSet).
func (s *storage[K]) LT(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(LT, value, 0, foundSet)
}

// LE is Compare(LE, value, 0, foundSet).
func (s *storage[K]) LE(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(LE, value, 0, foundSet)
}

// GT is Compare(GT, value, 0, foundSet).
func (s *storage[K]) GT(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(GT, value, 0, foundSet)
}

// GE is Compare(GE, value, 0, foundSet).
func (s *storage[K]) GE(value uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(GE, value, 0, foundSet)
}

// Range is Compare(RANGE, start, end, foundSet).
func (s *storage[K]) Range(start, end uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	return s.mustCompare(RANGE, start, end, foundSet)
}

// mustCompare backs the typed wrappers. Their operations are always valid,
// so Compare cannot fail.
func (s *storage[K]) mustCompare(op Operation, v, end uint64, foundSet bitmap.Set[K]) bitmap.Set[K] {
	res, _ := s.Compare(op, v, end, foundSet)
	return res
}

// compare evaluates op. fastPath enables the min/max short circuit, the
// result is identical either way. short reports whether it was taken.
func (s *storage[K]) compare(op Operation, v, end uint64, foundSet bitmap.Set[K], fastPath bool) (res bitmap.Set[K], short bool, err error) {
	if !op.valid() {
		return nil, false, &OperationError{Op: op}
	}

	fs := s.candidates(foundSet)
	if fs.IsEmpty() {
		return fs, true, nil
	}
	if op == RANGE && v > end {
		return bitmap.New[K](), true, nil
	}

	if fastPath {
		if res, ok := s.compareUsingMinMax(op, v, end, fs); ok {
			return res, true, nil
		}
	}

	switch op {
	case GE:
		return s.owenGE(v, fs), false, nil
	case RANGE:
		lo := s.owenGE(v, fs)
		lo.And(s.oNeil(LE, end, fs))
		return lo, false, nil
	default:
		return s.oNeil(op, v, fs), false, nil
	}
}

// compareUsingMinMax answers op from the value bounds alone when possible.
// fs is foundSet ∩ existence and is returned as is for a full match.
func (s *storage[K]) compareUsingMinMax(op Operation, v, end uint64, fs bitmap.Set[K]) (bitmap.Set[K], bool) {
	lo, hi := s.minValue, s.maxValue

	all := func() (bitmap.Set[K], bool) { return fs, true }
	none := func() (bitmap.Set[K], bool) { return bitmap.New[K](), true }

	switch op {
	case LT:
		if v > hi {
			return all()
		}
		if v <= lo {
			return none()
		}
	case LE:
		if v >= hi {
			return all()
		}
		if v < lo {
			return none()
		}
	case GT:
		if v < lo {
			return all()
		}
		if v >= hi {
			return none()
		}
	case GE:
		if v <= lo {
			return all()
		}
		if v > hi {
			return none()
		}
	case EQ:
		if lo == hi && v == lo {
			return all()
		}
		if v < lo || v > hi {
			return none()
		}
	case NEQ:
		if v < lo || v > hi || (lo == hi && v != lo) {
			return all()
		}
		if lo == hi && v == lo {
			return none()
		}
	case RANGE:
		if v <= lo && end >= hi {
			return all()
		}
		if v > hi || end < lo {
			return none()
		}
	}
	return nil, false
}

// sliceOrNil returns slice i, or nil when i is beyond the bit depth.
func (s *storage[K]) sliceOrNil(i int) bitmap.Set[K] {
	if i < len(s.slices) {
		return s.slices[i]
	}
	return nil
}

// oNeil runs the O'Neil comparison of every key in fs against v.
//
// The scan covers max(BitDepth, bitlen(v)) positions; positions beyond the
// bit depth behave as empty slices.
func (s *storage[K]) oNeil(op Operation, v uint64, fs bitmap.Set[K]) bitmap.Set[K] {
	gt := bitmap.New[K]()
	lt := bitmap.New[K]()
	eq := fs.Clone()

	depth := max(len(s.slices), bits.Len64(v))
	for i := depth - 1; i >= 0 && !eq.IsEmpty(); i-- {
		sl := s.sliceOrNil(i)
		if v&(1<<uint(i)) != 0 {
			if sl == nil {
				lt.Or(eq)
				eq.Clear()
				continue
			}
			lt.Or(bitmap.AndNot(eq, sl))
			eq.And(sl)
		} else if sl != nil {
			gt.Or(bitmap.And(eq, sl))
			eq.AndNot(sl)
		}
	}

	switch op {
	case EQ:
		return eq
	case NEQ:
		return bitmap.AndNot(fs, eq)
	case LT:
		return lt
	case LE:
		lt.Or(eq)
		return lt
	case GT:
		return gt
	default: // GE
		gt.Or(eq)
		return gt
	}
}

// owenGE selects the keys of fs with value >= v by building the OR of
// "spine AND slice" terms for value > v-1.
func (s *storage[K]) owenGE(v uint64, fs bitmap.Set[K]) bitmap.Set[K] {
	// value >= 0 holds for every existing key.
	if v == 0 {
		return fs.Clone()
	}

	target := v - 1
	stop := bits.TrailingZeros64(^target)
	depth := max(len(s.slices), bits.Len64(target))

	spine := fs.Clone()
	var terms []bitmap.Set[K]
	for i := depth - 1; i >= stop; i-- {
		sl := s.sliceOrNil(i)
		if target&(1<<uint(i)) != 0 {
			if sl == nil {
				break
			}
			spine.And(sl)
			if spine.IsEmpty() {
				break
			}
			continue
		}
		if sl != nil {
			terms = append(terms, bitmap.And(spine, sl))
		}
	}
	return bitmap.FastOr(terms...)
}

// MinMax returns the smallest or largest value over foundSet ∩ existence.
// ok is false when no key qualifies.
func (s *storage[K]) MinMax(e Extremum, foundSet bitmap.Set[K]) (value uint64, ok bool) {
	fs := s.candidates(foundSet)
	if fs.IsEmpty() {
		return 0, false
	}
	return s.extremum(e, fs), true
}

// extremum narrows fs from the top slice down. fs must be non-empty and is
// consumed.
func (s *storage[K]) extremum(e Extremum, fs bitmap.Set[K]) uint64 {
	var v uint64
	for i := len(s.slices) - 1; i >= 0; i-- {
		sl := s.slices[i]
		if e == Max {
			if t := bitmap.And(fs, sl); !t.IsEmpty() {
				fs = t
				v |= 1 << uint(i)
			}
			continue
		}
		if t := bitmap.AndNot(fs, sl); !t.IsEmpty() {
			fs = t
		} else {
			v |= 1 << uint(i)
		}
	}
	return v
}
