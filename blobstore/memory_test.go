package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("payload")
	require.NoError(t, store.Put(ctx, "a/1", data))
	data[0] = 'X'

	w, err := store.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	require.NoError(t, store.Put(ctx, "b/1", nil))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)

	blob, err := store.Open(ctx, "a/1")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "Put copies its input")

	rc, err := blob.ReadRange(ctx, 3, 100)
	require.NoError(t, err)
	tail, _ := io.ReadAll(rc)
	assert.Equal(t, "load", string(tail))
	_, err = blob.ReadRange(ctx, 7, 1)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, blob.Close())

	empty, err := store.Open(ctx, "b/1")
	require.NoError(t, err)
	got, err = ReadAll(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.True(t, store.Corrupt("a/1", 0))
	assert.False(t, store.Corrupt("a/1", 100))
	blob, _ = store.Open(ctx, "a/1")
	got, _ = ReadAll(ctx, blob)
	assert.NotEqual(t, "payload", string(got))

	require.NoError(t, store.PutIfNotExists(ctx, "c/1", []byte("first")))
	assert.ErrorIs(t, store.PutIfNotExists(ctx, "c/1", []byte("second")), ErrConflict)
	require.NoError(t, store.Delete(ctx, "c/1"))

	require.NoError(t, store.Delete(ctx, "a/1"))
	require.NoError(t, store.Delete(ctx, "missing"))
	names, _ = store.List(ctx, "")
	assert.Equal(t, []string{"a/2", "b/1"}, names)
}
