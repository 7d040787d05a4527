package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/bitmap"
	"github.com/hupe1980/bsi/blobstore"
	"github.com/hupe1980/bsi/internal/compress"
	"github.com/hupe1980/bsi/resource"
	"github.com/hupe1980/bsi/testutil"
)

func buildIndex[K bitmap.Key](t *testing.T, m map[K]uint64) *bsi.Index[K] {
	t.Helper()
	x := bsi.New[K]()
	pairs := make([]bsi.Pair[K], 0, len(m))
	for _, k := range testutil.SortedKeys(m) {
		pairs = append(pairs, bsi.Pair[K]{Key: k, Value: m[k]})
	}
	require.NoError(t, x.SetValues(pairs))
	return x
}

func requireSame[K bitmap.Key](t *testing.T, want map[K]uint64, got bsi.Reader[K]) {
	t.Helper()
	require.Equal(t, uint64(len(want)), got.Cardinality())
	for k, v := range want {
		gv, ok := got.GetValue(k)
		require.True(t, ok, "key %d", k)
		require.Equal(t, v, gv, "key %d", k)
	}
}

func TestManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	values := testutil.Values[uint32](testutil.NewRNG(1), 2000, 1<<20, 1<<16)
	x := buildIndex(t, values)

	for _, alg := range []compress.Algorithm{compress.None, compress.LZ4, compress.ZSTD} {
		for _, p := range []bsi.Profile{bsi.Portable, bsi.Fixed} {
			t.Run(fmt.Sprintf("%s/%s", alg, p), func(t *testing.T) {
				store := blobstore.NewMemoryStore()
				mgr := NewManager(store, WithCompression(alg), WithProfile(p))

				info, err := mgr.Save(ctx, "orders", x)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), info.Version)
				assert.Equal(t, uint8(4), info.KeyWidth)
				assert.Equal(t, x.Cardinality(), info.Cardinality)
				assert.Equal(t, x.BitDepth(), info.BitDepth)
				assert.Equal(t, x.MinValue(), info.Min)
				assert.Equal(t, x.MaxValue(), info.Max)
				assert.Equal(t, "orders/00000000000000000001.bsi", info.Blob)
				assert.Equal(t, GoJSON.Name(), info.Codec)

				got, err := mgr.Load32(ctx, "orders")
				require.NoError(t, err)
				requireSame(t, values, got)
				assert.Equal(t, x.MinValue(), got.MinValue())
				assert.Equal(t, x.MaxValue(), got.MaxValue())
			})
		}
	}
}

func TestManager_CompressionShrinksPayload(t *testing.T) {
	ctx := context.Background()
	x := bsi.New[uint64]()
	for i := uint64(0); i < 50_000; i += 3 {
		x.SetValue(i, i%7)
	}

	plain, err := NewManager(blobstore.NewMemoryStore()).Save(ctx, "a", x)
	require.NoError(t, err)
	packed, err := NewManager(blobstore.NewMemoryStore(), WithCompression(compress.ZSTD)).Save(ctx, "a", x)
	require.NoError(t, err)
	assert.Less(t, packed.Size, plain.Size)
}

func TestManager_Versions(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(blobstore.NewMemoryStore(), WithManifestCodec(StdJSON))

	a := bsi.New[uint32]()
	a.SetValue(1, 10)
	_, err := mgr.Save(ctx, "orders", a)
	require.NoError(t, err)

	a.SetValue(2, 20)
	info, err := mgr.Save(ctx, "orders", a)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.Version)
	assert.Equal(t, "json", info.Codec)

	versions, err := mgr.Versions(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, versions)

	cur, err := mgr.Current(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cur.Version)
	assert.Equal(t, uint64(2), cur.Cardinality)

	old, err := mgr.Info(ctx, "orders", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), old.Cardinality)

	got, err := mgr.Load32(ctx, "orders")
	require.NoError(t, err)
	requireSame(t, map[uint32]uint64{1: 10, 2: 20}, got)

	// other names are independent
	versions, err = mgr.Versions(ctx, "orders-archive")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager(store)

	x := bsi.New[uint32]()
	x.SetValue(1, 1)
	for i := 0; i < 3; i++ {
		_, err := mgr.Save(ctx, "orders", x)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, mgr.Delete(ctx, "orders", 3), ErrCurrentVersion)
	require.NoError(t, mgr.Delete(ctx, "orders", 1))
	require.NoError(t, mgr.Delete(ctx, "orders", 1), "deleting twice is not an error")

	versions, err := mgr.Versions(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, versions)

	_, err = store.Open(ctx, blobPath("orders", 1))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestManager_Corruption(t *testing.T) {
	ctx := context.Background()
	x := buildIndex(t, map[uint32]uint64{1: 5, 2: 3, 3: 5, 4: 9})

	for _, alg := range []compress.Algorithm{compress.None, compress.LZ4} {
		t.Run(alg.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			mgr := NewManager(store, WithCompression(alg))
			info, err := mgr.Save(ctx, "orders", x)
			require.NoError(t, err)

			require.True(t, store.Corrupt(info.Blob, HeaderSize+1))
			_, err = mgr.Load32(ctx, "orders")
			require.Error(t, err)
			assert.True(t, IsChecksumMismatch(err), "got %v", err)
		})
	}

	t.Run("magic", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		mgr := NewManager(store)
		info, err := mgr.Save(ctx, "orders", x)
		require.NoError(t, err)

		require.True(t, store.Corrupt(info.Blob, 0))
		_, err = mgr.Load32(ctx, "orders")
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})
}

func TestManager_Errors(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(blobstore.NewMemoryStore())

	_, err := mgr.Load32(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	for _, name := range []string{"", "/abs", "a/../b", "a//b", "../up"} {
		_, err := mgr.Save(ctx, name, bsi.New[uint32]())
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}

	wide := bsi.New[uint64]()
	wide.SetValue(1<<40, 1)
	_, err = mgr.Save(ctx, "wide", wide)
	require.NoError(t, err)
	_, err = mgr.Load32(ctx, "wide")
	assert.ErrorIs(t, err, ErrKeyWidth)

	got, err := mgr.Load64(ctx, "wide")
	require.NoError(t, err)
	v, ok := got.GetValue(1 << 40)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), v)

	_, err = NewManager(blobstore.NewMemoryStore(), WithCompression(compress.Algorithm(7))).Save(ctx, "x", wide)
	assert.ErrorIs(t, err, compress.ErrUnknownAlgorithm)
}

func TestManager_SavesImmutable(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(blobstore.NewMemoryStore())
	x := buildIndex(t, map[uint32]uint64{7: 70, 8: 80})

	_, err := mgr.Save(ctx, "frozen", x.Freeze())
	require.NoError(t, err)

	got, err := mgr.Load32(ctx, "frozen")
	require.NoError(t, err)
	requireSame(t, map[uint32]uint64{7: 70, 8: 80}, got)
}

// staleStore hides existing manifests so two managers pick the same
// version, as concurrent writers would.
type staleStore struct {
	*blobstore.MemoryStore
}

func (staleStore) List(context.Context, string) ([]string, error) { return nil, nil }

func TestManager_VersionConflict(t *testing.T) {
	ctx := context.Background()
	store := staleStore{blobstore.NewMemoryStore()}
	mgr := NewManager(store)

	first := buildIndex(t, map[uint32]uint64{1: 1})
	_, err := mgr.Save(ctx, "orders", first)
	require.NoError(t, err)

	_, err = mgr.Save(ctx, "orders", buildIndex(t, map[uint32]uint64{2: 2}))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.ErrorIs(t, err, blobstore.ErrConflict)

	// the winner is untouched
	got, err := mgr.Load32(ctx, "orders")
	require.NoError(t, err)
	requireSame(t, map[uint32]uint64{1: 1}, got)
}

func TestManager_Controller(t *testing.T) {
	ctx := context.Background()
	x := buildIndex(t, testutil.Values[uint32](testutil.NewRNG(3), 500, 1<<16, 1000))

	fast := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	mgr := NewManager(blobstore.NewMemoryStore(), WithController(fast))
	_, err := mgr.Save(ctx, "orders", x)
	require.NoError(t, err)
	got, err := mgr.Load32(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, x.Cardinality(), got.Cardinality())

	slow := resource.NewController(resource.Config{IOLimitBytesPerSec: 16})
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	mgr = NewManager(blobstore.NewMemoryStore(), WithController(slow))
	_, err = mgr.Save(cancelled, "orders", x)
	assert.ErrorIs(t, err, context.Canceled)

	versions, err := mgr.Versions(ctx, "orders")
	require.NoError(t, err)
	assert.Empty(t, versions, "a failed save releases its version")
}

func TestManager_Logging(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := bsi.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mgr := NewManager(blobstore.NewMemoryStore(), WithLogger(logger))

	_, err := mgr.Save(ctx, "orders", buildIndex(t, map[uint32]uint64{1: 1}))
	require.NoError(t, err)
	_, err = mgr.Load32(ctx, "missing")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "snapshot save completed")
	assert.Contains(t, out, "name=orders")
	assert.Contains(t, out, "snapshot load failed")
}

func TestManager_LoadIndexOptions(t *testing.T) {
	ctx := context.Background()
	metrics := &bsi.BasicMetricsCollector{}
	mgr := NewManager(blobstore.NewMemoryStore(), WithIndexOptions(bsi.WithMetricsCollector(metrics)))
	_, err := mgr.Save(ctx, "orders", buildIndex(t, map[uint32]uint64{1: 1}))
	require.NoError(t, err)

	got, err := mgr.Load32(ctx, "orders")
	require.NoError(t, err)
	_, err = got.Compare(bsi.EQ, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().CompareCount)
}

// stallingStore blocks Create of one blob until release is closed.
type stallingStore struct {
	*blobstore.MemoryStore
	blob    string
	entered chan struct{}
	release chan struct{}
}

func newStallingStore(blob string) *stallingStore {
	return &stallingStore{
		MemoryStore: blobstore.NewMemoryStore(),
		blob:        blob,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *stallingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == s.blob {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Create(ctx, name)
}

// plainStore exposes only the BlobStore methods, without conditional writes.
type plainStore struct {
	blobstore.BlobStore
}

func TestManager_CurrentNeverMovesBackwards(t *testing.T) {
	tests := []struct {
		name     string
		wrap     func(*stallingStore) blobstore.BlobStore
		separate bool
	}{
		{"swap store, separate managers", func(s *stallingStore) blobstore.BlobStore { return s }, true},
		{"swap store, shared manager", func(s *stallingStore) blobstore.BlobStore { return s }, false},
		{"plain store, shared manager", func(s *stallingStore) blobstore.BlobStore { return plainStore{s} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			stall := newStallingStore(blobPath("orders", 1))
			store := tt.wrap(stall)

			slow, fast := NewManager(store), NewManager(store)
			if !tt.separate {
				fast = slow
			}
			older := buildIndex(t, map[uint32]uint64{1: 1})
			newer := buildIndex(t, map[uint32]uint64{2: 2})

			done := make(chan error, 1)
			go func() {
				_, err := slow.Save(ctx, "orders", older)
				done <- err
			}()
			<-stall.entered

			info, err := fast.Save(ctx, "orders", newer)
			require.NoError(t, err)
			require.Equal(t, uint64(2), info.Version)

			close(stall.release)
			require.NoError(t, <-done)

			cur, err := slow.Current(ctx, "orders")
			require.NoError(t, err)
			assert.Equal(t, uint64(2), cur.Version)

			got, err := slow.Load32(ctx, "orders")
			require.NoError(t, err)
			requireSame(t, map[uint32]uint64{2: 2}, got)

			versions, err := slow.Versions(ctx, "orders")
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 2}, versions)
		})
	}
}

func TestManifestVersion(t *testing.T) {
	v, ok := manifestVersion("orders/MANIFEST-12.json")
	assert.True(t, ok)
	assert.Equal(t, uint64(12), v)

	for _, p := range []string{"orders/CURRENT", "orders/MANIFEST-x.json", "orders/00000000000000000001.bsi", ""} {
		_, ok := manifestVersion(p)
		assert.False(t, ok, p)
	}
}
