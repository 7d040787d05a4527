// Package bsi implements a bit-sliced index: a compressed column that maps
// integer keys to unsigned integer values and answers range predicates and
// aggregates without decoding individual values.
//
// An index stores one compressed bitmap per bit position of the value
// ("slice") plus an existence bitmap. Keys are uint32 or uint64; values are
// uint64.
//
// # Quick Start
//
//	idx := bsi.New[uint32]()
//	idx.SetValue(1, 5)
//	idx.SetValue(2, 3)
//	_ = idx.SetValues([]bsi.Pair[uint32]{{Key: 3, Value: 5}, {Key: 4, Value: 9}})
//
//	ge5, _ := idx.Compare(bsi.GE, 5, 0, nil)          // {1, 3, 4}
//	inRange := idx.Range(3, 5, nil)                   // {1, 2, 3}
//	sum, count := idx.Sum(idx.Existence())            // 22, 4
//	top, _ := idx.TopK(nil, 2)                        // {4, 1}
//
// # Comparisons
//
// Compare evaluates EQ, NEQ, LT, LE, GT, GE and RANGE. GE and the lower
// bound of RANGE use Owen Kaser's spine algorithm; the other operations use
// O'Neil's top-down comparison. Queries first try to answer from the
// [MinValue, MaxValue] bounds and skip the slices when they can.
//
// # Arithmetic
//
// Add accumulates another index (keys in both are summed, keys in one are
// adopted) with a ripple-carry adder whose digits are whole bitmaps. Merge
// unites indexes over disjoint key sets.
//
// # Serialization
//
// Two layouts exist. Portable (WriteTo / ReadFrom) stores the bounds and the
// bit depth as Hadoop vlongs. Fixed (Encode / Decode with bsi.Fixed) stores
// them as fixed-width big-endian integers and can be opened without copying
// via FromBytes, which returns an Immutable:
//
//	var buf bytes.Buffer
//	_, _ = idx.Encode(&buf, bsi.Fixed)
//	view, _ := bsi.FromBytes[uint32](buf.Bytes(), bsi.Fixed)
//
// The snapshot package persists indexes in any blobstore.BlobStore.
//
// # Parallel Queries
//
// ParallelCompare, ParallelIn and ParallelTransposeWithCount split the found
// set into disjoint batches, evaluate them concurrently and combine the
// partial results.
//
// # Read-only Indexes
//
// Immutable offers the queries of Index without mutation. Mutable reports
// ErrReadOnly for an Immutable; Clone returns a mutable copy.
package bsi
