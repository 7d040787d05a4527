package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bsi/internal/fs"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte("hello world, this is a snapshot payload")

	w, err := store.Create(ctx, "orders/0001.bsi")
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())

	// invisible until Close
	_, err = store.Open(ctx, "orders/0001.bsi")
	require.ErrorIs(t, err, ErrNotFound)
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "orders", "0001.bsi"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, "orders/0001.bsi")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	rc, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "this", string(got))
	require.NoError(t, rc.Close())

	mapped, err := blob.(Mappable).Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, mapped)

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "orders/CURRENT", []byte("orders/MANIFEST-1.json")))
	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("x")))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders/0001.bsi", "orders/CURRENT", "users/CURRENT"}, names)

	names, err = store.List(ctx, "orders/")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders/0001.bsi", "orders/CURRENT"}, names)

	require.NoError(t, store.Delete(ctx, "orders/0001.bsi"))
	require.NoError(t, store.Delete(ctx, "orders/0001.bsi"), "deleting twice is fine")
	_, err = store.Open(ctx, "orders/0001.bsi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_ReadRangeBoundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "b", []byte("0123456789")))

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))

	_, err = blob.ReadRange(ctx, 20, 5)
	assert.ErrorIs(t, err, io.EOF)

	n, err := blob.ReadAt(ctx, make([]byte, 4), 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalStore_EmptyList(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_FailedWriteKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	store := NewLocalStore(dir, WithFileSystem(ffs))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "x/CURRENT", []byte("v1")))

	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 1})
	err := store.Put(ctx, "x/CURRENT", []byte("v2"))
	assert.ErrorIs(t, err, fs.ErrInjected)

	ffs.Reset()
	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: -1, FailOnRename: true})
	err = store.Put(ctx, "x/CURRENT", []byte("v3"))
	assert.ErrorIs(t, err, fs.ErrInjected)

	blob, err := store.Open(ctx, "x/CURRENT")
	require.NoError(t, err)
	defer blob.Close()
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "x"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestAbort(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	} {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "a/blob")
			require.NoError(t, err)
			_, err = w.Write([]byte("partial"))
			require.NoError(t, err)
			require.NoError(t, Abort(w))

			_, err = store.Open(ctx, "a/blob")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := store.List(ctx, "a/")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestCompareAndSwap(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]interface {
		BlobStore
		SwapStore
	}{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.CompareAndSwap(ctx, "idx/CURRENT", nil, []byte("v1")))
			assert.ErrorIs(t, store.CompareAndSwap(ctx, "idx/CURRENT", nil, []byte("v9")), ErrConflict)

			require.NoError(t, store.CompareAndSwap(ctx, "idx/CURRENT", []byte("v1"), []byte("v2")))
			assert.ErrorIs(t, store.CompareAndSwap(ctx, "idx/CURRENT", []byte("v1"), []byte("v3")), ErrConflict)
			assert.ErrorIs(t, store.CompareAndSwap(ctx, "idx/missing", []byte("v1"), []byte("v3")), ErrConflict)

			b, err := store.Open(ctx, "idx/CURRENT")
			require.NoError(t, err)
			data, err := ReadAll(ctx, b)
			require.NoError(t, err)
			require.NoError(t, b.Close())
			assert.Equal(t, "v2", string(data))
		})
	}
}
