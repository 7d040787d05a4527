package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/bsi/internal/fs"
	"github.com/hupe1980/bsi/internal/mmap"
)

var tmpSeq atomic.Uint64

// LocalStore implements BlobStore on a local directory. Reads are served
// from read-only memory mappings. Writes go to a temporary file that is
// synced and renamed into place on Close.
//
// CompareAndSwap is serialized within one LocalStore only. Processes sharing
// a directory must coordinate pointer updates themselves.
type LocalStore struct {
	root string
	fs   fs.FileSystem
	swap sync.Mutex
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system used for writes and listing.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Path returns the file path backing the named blob.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps the named blob read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.Path(name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create opens a temporary file next to the target.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	target := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	tmp := fmt.Sprintf("%s.tmp-%d-%d", target, os.Getpid(), tmpSeq.Add(1))
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fs: s.fs, f: f, tmp: tmp, target: target}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = Abort(w)
		return err
	}
	return w.Close()
}

// CompareAndSwap replaces a blob if its content equals old.
func (s *LocalStore) CompareAndSwap(ctx context.Context, name string, old, data []byte) error {
	s.swap.Lock()
	defer s.swap.Unlock()

	cur, err := os.ReadFile(s.Path(name))
	switch {
	case errors.Is(err, os.ErrNotExist):
		if old != nil {
			return ErrConflict
		}
	case err != nil:
		return err
	case old == nil || !bytes.Equal(cur, old):
		return ErrConflict
	}
	return s.Put(ctx, name, data)
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns the slash-separated names of all blobs below the root that
// start with prefix. Temporary files are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.walk("", func(name string) {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalStore) walk(dir string, fn func(string)) error {
	entries, err := s.fs.ReadDir(s.Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		if e.IsDir() {
			if err := s.walk(name, fn); err != nil {
				return err
			}
			continue
		}
		if strings.Contains(e.Name(), ".tmp-") {
			continue
		}
		fn(name)
	}
	return nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	end, err := clampRange(int64(len(data)), off, length)
	if err != nil {
		return nil, err
	}
	// Copy so the reader survives Close of the mapping.
	return io.NopCloser(bytes.NewReader(bytes.Clone(data[off:end]))), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	fs     fs.FileSystem
	f      fs.File
	tmp    string
	target string
	done   bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	return w.f.Sync()
}

// Close publishes the blob. On failure the temporary file is removed and
// the previous blob, if any, stays in place.
func (w *localWritableBlob) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.fs.Rename(w.tmp, w.target); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	return nil
}

// Abort removes the temporary file. The previous blob, if any, stays.
func (w *localWritableBlob) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.fs.Remove(w.tmp)
}
