package bitmap

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Roaring32 is a Set[uint32] backed by a 32-bit roaring bitmap.
type Roaring32 struct {
	bm *roaring.Bitmap
}

var _ Set[uint32] = (*Roaring32)(nil)

// NewRoaring32 returns an empty 32-bit set.
func NewRoaring32() *Roaring32 {
	return &Roaring32{bm: roaring.New()}
}

// WrapRoaring32 adopts bm without copying it.
func WrapRoaring32(bm *roaring.Bitmap) *Roaring32 {
	if bm == nil {
		bm = roaring.New()
	}
	return &Roaring32{bm: bm}
}

// Bitmap exposes the underlying roaring bitmap.
func (s *Roaring32) Bitmap() *roaring.Bitmap { return s.bm }

func (s *Roaring32) Add(x uint32)           { s.bm.Add(x) }
func (s *Roaring32) AddMany(xs []uint32)    { s.bm.AddMany(xs) }
func (s *Roaring32) Remove(x uint32)        { s.bm.Remove(x) }
func (s *Roaring32) Contains(x uint32) bool { return s.bm.Contains(x) }
func (s *Roaring32) Cardinality() uint64    { return s.bm.GetCardinality() }
func (s *Roaring32) IsEmpty() bool          { return s.bm.IsEmpty() }
func (s *Roaring32) Minimum() uint32        { return s.bm.Minimum() }
func (s *Roaring32) Maximum() uint32        { return s.bm.Maximum() }
func (s *Roaring32) Clear()                 { s.bm.Clear() }

func (s *Roaring32) Clone() Set[uint32] {
	return &Roaring32{bm: s.bm.Clone()}
}

func (s *Roaring32) And(other Set[uint32])    { s.bm.And(toRoaring32(other).bm) }
func (s *Roaring32) Or(other Set[uint32])     { s.bm.Or(toRoaring32(other).bm) }
func (s *Roaring32) Xor(other Set[uint32])    { s.bm.Xor(toRoaring32(other).bm) }
func (s *Roaring32) AndNot(other Set[uint32]) { s.bm.AndNot(toRoaring32(other).bm) }

func (s *Roaring32) AndCardinality(other Set[uint32]) uint64 {
	return s.bm.AndCardinality(toRoaring32(other).bm)
}

func (s *Roaring32) Intersects(other Set[uint32]) bool {
	return s.bm.Intersects(toRoaring32(other).bm)
}

func (s *Roaring32) Equals(other Set[uint32]) bool {
	return s.bm.Equals(toRoaring32(other).bm)
}

func (s *Roaring32) Iterate(fn func(uint32) bool) { s.bm.Iterate(fn) }

func (s *Roaring32) ManyIterator() ManyIterator[uint32] { return s.bm.ManyIterator() }

func (s *Roaring32) ToArray() []uint32 { return s.bm.ToArray() }

func (s *Roaring32) RunOptimize()            { s.bm.RunOptimize() }
func (s *Roaring32) HasRunCompression() bool { return s.bm.HasRunCompression() }

func (s *Roaring32) SerializedSizeInBytes() uint64 { return s.bm.GetSerializedSizeInBytes() }

func (s *Roaring32) WriteTo(w io.Writer) (int64, error) { return s.bm.WriteTo(w) }

func (s *Roaring32) ReadFrom(r io.Reader) (int64, error) { return s.bm.ReadFrom(r) }

func (s *Roaring32) FromBuffer(buf []byte) (int64, error) { return s.bm.FromBuffer(buf) }

func (s *Roaring32) String() string { return s.bm.String() }

// toRoaring32 returns the native representation of other, converting
// foreign implementations by copying their keys.
func toRoaring32(other Set[uint32]) *Roaring32 {
	if r, ok := other.(*Roaring32); ok {
		return r
	}
	if other == nil {
		return NewRoaring32()
	}
	return &Roaring32{bm: roaring.BitmapOf(other.ToArray()...)}
}

func fastOr32(sets []*Roaring32) *Roaring32 {
	switch len(sets) {
	case 0:
		return NewRoaring32()
	case 1:
		return &Roaring32{bm: sets[0].bm.Clone()}
	}
	bms := make([]*roaring.Bitmap, len(sets))
	for i, s := range sets {
		bms[i] = s.bm
	}
	return &Roaring32{bm: roaring.FastOr(bms...)}
}
