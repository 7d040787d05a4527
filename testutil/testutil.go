package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/bsi/bitmap"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Uint64n returns a pseudo-random number in [0,n). n must be positive.
func (r *RNG) Uint64n(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uint64nLocked(n)
}

func (r *RNG) uint64nLocked(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.rand.Uint64() & (n - 1)
	}
	limit := math.MaxUint64 - math.MaxUint64%n
	for {
		v := r.rand.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// Values assigns a uniform value in [0, maxValue] to n distinct keys drawn
// from [0, keySpace). keySpace must be at least n.
func Values[K bitmap.Key](r *RNG, n int, keySpace, maxValue uint64) map[K]uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[K]uint64, n)
	for len(out) < n {
		k := K(r.uint64nLocked(keySpace))
		if _, ok := out[k]; ok {
			continue
		}
		if maxValue == math.MaxUint64 {
			out[k] = r.rand.Uint64()
		} else {
			out[k] = r.uint64nLocked(maxValue + 1)
		}
	}
	return out
}

// ZipfValues is Values with Zipf-distributed values in [0, maxValue], so a
// few values repeat often. s is the skew (s > 1).
func ZipfValues[K bitmap.Key](r *RNG, n int, keySpace, maxValue uint64, s float64) map[K]uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	z := rand.NewZipf(r.rand, s, 1, maxValue)
	out := make(map[K]uint64, n)
	for len(out) < n {
		k := K(r.uint64nLocked(keySpace))
		if _, ok := out[k]; ok {
			continue
		}
		out[k] = z.Uint64()
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K bitmap.Key](m map[K]uint64) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Filter returns the set of keys of m whose value satisfies pred. It is the
// brute-force reference for comparison queries.
func Filter[K bitmap.Key](m map[K]uint64, pred func(v uint64) bool) bitmap.Set[K] {
	out := bitmap.New[K]()
	for k, v := range m {
		if pred(v) {
			out.Add(k)
		}
	}
	return out
}

// Subset draws a random subset of the keys of m, each kept with
// probability p.
func Subset[K bitmap.Key](r *RNG, m map[K]uint64, p float64) bitmap.Set[K] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := bitmap.New[K]()
	for _, k := range SortedKeys(m) {
		if r.rand.Float64() < p {
			out.Add(k)
		}
	}
	return out
}
