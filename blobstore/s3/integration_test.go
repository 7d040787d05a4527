package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bsi/blobstore"
)

func TestIntegration_Store(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	optFns := []Option{WithPrefix(fmt.Sprintf("bsi-test-%d", time.Now().UnixNano()))}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		optFns = append(optFns, WithEndpoint(endpoint))
	}
	store, err := New(ctx, bucket, optFns...)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "orders/a", []byte("alpha")))

	w, err := store.Create(ctx, "orders/b")
	require.NoError(t, err)
	_, err = w.Write([]byte("bravo"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "orders/")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders/a", "orders/b"}, names)

	b, err := store.Open(ctx, "orders/b")
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(data))

	assert.ErrorIs(t, store.PutIfNotExists(ctx, "orders/a", []byte("x")), blobstore.ErrConflict)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
	_, err = store.Open(ctx, "orders/a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
