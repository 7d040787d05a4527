package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing immutable blobs
// (snapshots, manifests). Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ErrConflict is returned by PutIfNotExists when the blob already exists.
var ErrConflict = errors.New("blobstore: blob already exists")

// ConditionalStore is an optional interface for stores that can create a
// blob only when it does not exist yet. Snapshot manifests use it to
// detect concurrent writers.
type ConditionalStore interface {
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}

// SwapStore is an optional interface for stores that can replace a blob
// only when its content still equals what the caller last read. Snapshot
// CURRENT pointers use it so a stale writer cannot move them backwards.
type SwapStore interface {
	// CompareAndSwap writes data to name if the blob currently holds old.
	// A nil old requires that name does not exist. It returns ErrConflict
	// when the precondition fails.
	CompareAndSwap(ctx context.Context, name string, old, data []byte) error
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off. It follows io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for up to length bytes at off. It returns
	// io.EOF when off lies beyond the end of the blob.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a handle to a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
}

// Aborter is implemented by WritableBlobs that can discard a partial
// write without publishing it.
type Aborter interface {
	Abort() error
}

// Abort discards w. Writers that cannot abort are closed, which may
// publish the partial data.
func Abort(w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// ReadAll reads the whole blob.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, err
	}
	return buf[:n], nil
}

// clampRange validates off against size and returns the exclusive end of
// the range [off, off+length).
func clampRange(size, off, length int64) (int64, error) {
	if off < 0 || length < 0 {
		return 0, errors.New("blobstore: negative offset or length")
	}
	if off >= size {
		return 0, io.EOF
	}
	end := off + length
	if end > size || end < off {
		end = size
	}
	return end, nil
}
