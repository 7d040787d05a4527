package bitmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksWidth(t *testing.T) {
	_, ok := New[uint32]().(*Roaring32)
	assert.True(t, ok)
	_, ok = New[uint64]().(*Roaring64)
	assert.True(t, ok)

	assert.Equal(t, 32, Width[uint32]())
	assert.Equal(t, 64, Width[uint64]())
}

func testAlgebra[K Key](t *testing.T) {
	a := Of[K](1, 2, 3, 4)
	b := Of[K](3, 4, 5)

	assert.Equal(t, []K{3, 4}, And(a, b).ToArray())
	assert.Equal(t, []K{1, 2, 3, 4, 5}, Or(a, b).ToArray())
	assert.Equal(t, []K{1, 2, 5}, Xor(a, b).ToArray())
	assert.Equal(t, []K{1, 2}, AndNot(a, b).ToArray())

	// operands are untouched
	assert.Equal(t, uint64(4), a.Cardinality())
	assert.Equal(t, uint64(3), b.Cardinality())

	assert.Equal(t, uint64(2), a.AndCardinality(b))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(Of[K](9)))

	assert.Equal(t, []K{1, 2, 3, 4, 5, 9}, FastOr(a, b, nil, Of[K](9)).ToArray())
	assert.True(t, FastOr[K]().IsEmpty())
}

func TestAlgebra(t *testing.T) {
	t.Run("uint32", testAlgebra[uint32])
	t.Run("uint64", testAlgebra[uint64])
}

func testIteration[K Key](t *testing.T) {
	s := New[K]()
	for i := K(0); i < 5000; i += 3 {
		s.Add(i)
	}

	var got []K
	s.Iterate(func(k K) bool {
		got = append(got, k)
		return len(got) < 10
	})
	assert.Len(t, got, 10)
	assert.Equal(t, K(27), got[9])

	it := s.ManyIterator()
	buf := make([]K, 256)
	var total int
	for n := it.NextMany(buf); n > 0; n = it.NextMany(buf) {
		total += n
	}
	assert.Equal(t, int(s.Cardinality()), total)
	assert.Equal(t, K(0), s.Minimum())
	assert.Equal(t, K(4998), s.Maximum())
}

func TestIteration(t *testing.T) {
	t.Run("uint32", testIteration[uint32])
	t.Run("uint64", testIteration[uint64])
}

func TestRoaring64_IterateWideKeys(t *testing.T) {
	keys := []uint64{7, 1 << 32, 1<<40 + 1, 1 << 63}
	s := Of(keys...)

	var got []uint64
	s.Iterate(func(k uint64) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, keys, got)

	got = got[:0]
	s.Iterate(func(k uint64) bool {
		got = append(got, k)
		return k < 1<<32
	})
	assert.Equal(t, []uint64{7, 1 << 32}, got)
}

func testSerialization[K Key](t *testing.T) {
	s := Of[K](1, 100, 1000, 100000)
	s.RunOptimize()

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(s.SerializedSizeInBytes()), n)

	r := New[K]()
	_, err = r.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, s.Equals(r))

	m := New[K]()
	_, err = m.FromBuffer(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, s.ToArray(), m.ToArray())
}

func TestSerialization(t *testing.T) {
	t.Run("uint32", testSerialization[uint32])
	t.Run("uint64", testSerialization[uint64])
}

type sliceSet struct {
	Set[uint32]
	keys []uint32
}

func (s sliceSet) ToArray() []uint32 { return s.keys }

func TestForeignOperand(t *testing.T) {
	a := Of[uint32](1, 2, 3)
	a.And(sliceSet{keys: []uint32{2, 3, 4}})
	assert.Equal(t, []uint32{2, 3}, a.ToArray())
}
