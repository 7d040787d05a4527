// Package bitmap defines the compressed key set used by the bit-sliced index.
//
// A Set holds unsigned keys of one width (uint32 or uint64). Mutating set
// algebra (And, Or, Xor, AndNot) works in place on the receiver, the package
// level functions of the same name leave their operands untouched.
//
// Two implementations are provided, both backed by RoaringBitmap:
//
//	s32 := bitmap.New[uint32]() // *Roaring32, github.com/RoaringBitmap/roaring/v2
//	s64 := bitmap.New[uint64]() // *Roaring64, github.com/RoaringBitmap/roaring/v2/roaring64
//
// Sets of different implementations can be mixed: operands that are not the
// native representation are converted on the fly.
package bitmap
