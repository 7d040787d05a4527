// Package mmap maps snapshot files read-only into memory so bit-sliced
// indexes can be served straight from the page cache.
//
//	m, err := mmap.Open("orders/00000000000000000001.bsi")
//	if err != nil { ... }
//	defer m.Close()
//
//	payload, _ := m.Tail(headerSize)
//	_ = payload.Advise(mmap.AccessRandom)
//
// Unix platforms use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping and its Regions are safe for concurrent reads. Close is
// idempotent, but callers must stop using Bytes once it returns.
package mmap
