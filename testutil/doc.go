// Package testutil provides testing utilities for bit-sliced indexes.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic RNG, random key/value generators and a
// brute-force reference filter to check query results against.
//
//	rng := testutil.NewRNG(seed)
//	values := testutil.Values[uint32](rng, 1000, 1<<20, 1<<12)
//	want := testutil.Filter(values, func(v uint64) bool { return v >= 100 })
package testutil
