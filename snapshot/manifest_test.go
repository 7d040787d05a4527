package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/blobstore"
)

func TestManifestCodecs_Interchangeable(t *testing.T) {
	in := Info{
		Name:        "orders",
		Version:     7,
		KeyWidth:    8,
		Profile:     bsi.Portable,
		Compression: ZSTDCompression,
		Codec:       "json",
		Cardinality: 12,
		BitDepth:    64,
		Min:         3,
		Max:         1<<64 - 1,
		Blob:        blobPath("orders", 7),
		Size:        512,
		Created:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	for _, enc := range []ManifestCodec{StdJSON, GoJSON} {
		for _, dec := range []ManifestCodec{StdJSON, GoJSON} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				data, err := enc.Encode(in)
				require.NoError(t, err)

				out, err := dec.Decode(data)
				require.NoError(t, err)
				assert.Equal(t, in, out)
				assert.NoError(t, checkManifest(manifestPath("orders", 7), out))
			})
		}
	}

	_, err := GoJSON.Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestCheckManifest(t *testing.T) {
	good := Info{Name: "orders", Version: 3, Blob: blobPath("orders", 3)}
	require.NoError(t, checkManifest(manifestPath("orders", 3), good))

	for name, tt := range map[string]struct {
		mpath string
		info  Info
	}{
		"wrong version": {manifestPath("orders", 4), good},
		"wrong name":    {manifestPath("users", 3), good},
		"wrong blob":    {manifestPath("orders", 3), Info{Name: "orders", Version: 3, Blob: blobPath("orders", 2)}},
		"not manifest":  {"orders/CURRENT", good},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, checkManifest(tt.mpath, tt.info), ErrInvalidManifest)
		})
	}
}

func TestManager_RejectsMisplacedManifest(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager(store)

	x := bsi.New[uint32]()
	x.SetValue(1, 1)
	_, err := mgr.Save(ctx, "orders", x)
	require.NoError(t, err)

	// a manifest copied under another version must not be trusted
	data, err := mgr.readSmall(ctx, manifestPath("orders", 1))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, manifestPath("orders", 2), data))

	_, err = mgr.Info(ctx, "orders", 2)
	assert.ErrorIs(t, err, ErrInvalidManifest)

	info, err := mgr.Info(ctx, "orders", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.Version)
}
