package bitmap

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Roaring64 is a Set[uint64] backed by a 64-bit roaring bitmap.
type Roaring64 struct {
	bm *roaring64.Bitmap
}

var _ Set[uint64] = (*Roaring64)(nil)

// NewRoaring64 returns an empty 64-bit set.
func NewRoaring64() *Roaring64 {
	return &Roaring64{bm: roaring64.New()}
}

// WrapRoaring64 adopts bm without copying it.
func WrapRoaring64(bm *roaring64.Bitmap) *Roaring64 {
	if bm == nil {
		bm = roaring64.New()
	}
	return &Roaring64{bm: bm}
}

// Bitmap exposes the underlying roaring bitmap.
func (s *Roaring64) Bitmap() *roaring64.Bitmap { return s.bm }

func (s *Roaring64) Add(x uint64)           { s.bm.Add(x) }
func (s *Roaring64) AddMany(xs []uint64)    { s.bm.AddMany(xs) }
func (s *Roaring64) Remove(x uint64)        { s.bm.Remove(x) }
func (s *Roaring64) Contains(x uint64) bool { return s.bm.Contains(x) }
func (s *Roaring64) Cardinality() uint64    { return s.bm.GetCardinality() }
func (s *Roaring64) IsEmpty() bool          { return s.bm.IsEmpty() }
func (s *Roaring64) Minimum() uint64        { return s.bm.Minimum() }
func (s *Roaring64) Maximum() uint64        { return s.bm.Maximum() }
func (s *Roaring64) Clear()                 { s.bm.Clear() }

func (s *Roaring64) Clone() Set[uint64] {
	return &Roaring64{bm: s.bm.Clone()}
}

func (s *Roaring64) And(other Set[uint64])    { s.bm.And(toRoaring64(other).bm) }
func (s *Roaring64) Or(other Set[uint64])     { s.bm.Or(toRoaring64(other).bm) }
func (s *Roaring64) Xor(other Set[uint64])    { s.bm.Xor(toRoaring64(other).bm) }
func (s *Roaring64) AndNot(other Set[uint64]) { s.bm.AndNot(toRoaring64(other).bm) }

func (s *Roaring64) AndCardinality(other Set[uint64]) uint64 {
	return s.bm.AndCardinality(toRoaring64(other).bm)
}

func (s *Roaring64) Intersects(other Set[uint64]) bool {
	return s.bm.Intersects(toRoaring64(other).bm)
}

func (s *Roaring64) Equals(other Set[uint64]) bool {
	return s.bm.Equals(toRoaring64(other).bm)
}

func (s *Roaring64) Iterate(fn func(uint64) bool) {
	it := s.bm.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

func (s *Roaring64) ManyIterator() ManyIterator[uint64] { return s.bm.ManyIterator() }

func (s *Roaring64) ToArray() []uint64 { return s.bm.ToArray() }

func (s *Roaring64) RunOptimize()            { s.bm.RunOptimize() }
func (s *Roaring64) HasRunCompression() bool { return s.bm.HasRunCompression() }

func (s *Roaring64) SerializedSizeInBytes() uint64 { return s.bm.GetSerializedSizeInBytes() }

func (s *Roaring64) WriteTo(w io.Writer) (int64, error) { return s.bm.WriteTo(w) }

func (s *Roaring64) ReadFrom(r io.Reader) (int64, error) { return s.bm.ReadFrom(r) }

// FromBuffer uses roaring64's unsafe byte loader. The containers reference
// buf directly.
func (s *Roaring64) FromBuffer(buf []byte) (int64, error) { return s.bm.FromUnsafeBytes(buf) }

func (s *Roaring64) String() string { return s.bm.String() }

func toRoaring64(other Set[uint64]) *Roaring64 {
	if r, ok := other.(*Roaring64); ok {
		return r
	}
	if other == nil {
		return NewRoaring64()
	}
	return &Roaring64{bm: roaring64.BitmapOf(other.ToArray()...)}
}

func fastOr64(sets []*Roaring64) *Roaring64 {
	switch len(sets) {
	case 0:
		return NewRoaring64()
	case 1:
		return &Roaring64{bm: sets[0].bm.Clone()}
	}
	bms := make([]*roaring64.Bitmap, len(sets))
	for i, s := range sets {
		bms[i] = s.bm
	}
	return &Roaring64{bm: roaring64.FastOr(bms...)}
}
