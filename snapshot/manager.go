package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/bitmap"
	"github.com/hupe1980/bsi/blobstore"
	"github.com/hupe1980/bsi/internal/compress"
	"github.com/hupe1980/bsi/resource"
)

var (
	// ErrInvalidName is returned for snapshot names that are empty, absolute
	// or not in clean slash form.
	ErrInvalidName = errors.New("snapshot: invalid name")
	// ErrVersionConflict is returned when another writer saved the same
	// version first. It wraps blobstore.ErrConflict.
	ErrVersionConflict = fmt.Errorf("snapshot: version conflict: %w", blobstore.ErrConflict)
	// ErrCurrentVersion is returned when deleting the version CURRENT points to.
	ErrCurrentVersion = errors.New("snapshot: version is current")
)

// Source is an index that can be saved. Both *bsi.Index and *bsi.Immutable
// qualify.
type Source interface {
	Cardinality() uint64
	BitDepth() int
	MinValue() uint64
	MaxValue() uint64
	Encode(w io.Writer, p bsi.Profile) (int64, error)
}

// Manager saves and loads versioned snapshots in a BlobStore. It is safe
// for concurrent use; concurrent saves of one name are serialized by the
// manifest write, and the loser gets ErrVersionConflict.
//
// CURRENT only moves forward. On a blobstore.SwapStore the pointer is
// replaced with compare-and-swap, which also holds across processes. Other
// stores get a re-read under a lock held by this Manager.
type Manager struct {
	store blobstore.BlobStore
	opts  options
	mu    sync.Mutex
}

// NewManager returns a Manager writing to store.
func NewManager(store blobstore.BlobStore, optFns ...Option) *Manager {
	opts := options{
		compression: compress.None,
		profile:     bsi.Fixed,
		codec:       GoJSON,
		logger:      bsi.NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{store: store, opts: opts}
}

func validName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || path.Clean(name) != name || strings.HasPrefix(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func keyWidth(src Source) (uint8, error) {
	switch src.(type) {
	case bsi.Reader[uint32]:
		return 4, nil
	case bsi.Reader[uint64]:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: unsupported source %T", bsi.ErrInvalidArgument, src)
	}
}

func keyWidthOf[K bitmap.Key]() uint8 {
	var k K
	if _, ok := any(k).(uint32); ok {
		return 4
	}
	return 8
}

// Save writes src as the next version of name and points CURRENT at it.
//
// The manifest is written first and claims the version, then the blob,
// then CURRENT. Readers following CURRENT never see a partial snapshot.
func (m *Manager) Save(ctx context.Context, name string, src Source) (info Info, err error) {
	defer func() { m.opts.logger.LogSnapshot(ctx, "save", name, info.Version, info.Size, err) }()

	if err := validName(name); err != nil {
		return Info{}, err
	}
	if !m.opts.compression.Valid() {
		return Info{}, fmt.Errorf("%w: %d", compress.ErrUnknownAlgorithm, m.opts.compression)
	}
	width, err := keyWidth(src)
	if err != nil {
		return Info{}, err
	}

	var raw bytes.Buffer
	if _, err := src.Encode(&raw, m.opts.profile); err != nil {
		return Info{}, fmt.Errorf("snapshot: encode: %w", err)
	}
	stored, err := compress.Compress(raw.Bytes(), m.opts.compression)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: compress: %w", err)
	}
	hdr := newHeader(width, m.opts.profile, m.opts.compression, raw.Bytes(), stored)

	versions, err := m.Versions(ctx, name)
	if err != nil {
		return Info{}, err
	}
	version := uint64(1)
	if n := len(versions); n > 0 {
		version = versions[n-1] + 1
	}

	candidate := Info{
		Name:        name,
		Version:     version,
		KeyWidth:    width,
		Profile:     m.opts.profile,
		Compression: m.opts.compression,
		Codec:       m.opts.codec.Name(),
		Cardinality: src.Cardinality(),
		BitDepth:    src.BitDepth(),
		Min:         src.MinValue(),
		Max:         src.MaxValue(),
		Blob:        blobPath(name, version),
		Size:        int64(HeaderSize + len(stored)),
		Created:     time.Now().UTC(),
	}

	manifest, err := m.opts.codec.Encode(candidate)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: encode manifest: %w", err)
	}
	mpath := manifestPath(name, version)
	if err := m.claim(ctx, mpath, manifest); err != nil {
		return Info{}, err
	}

	if err := m.writeBlob(ctx, candidate.Blob, hdr.marshal(), stored); err != nil {
		_ = m.store.Delete(ctx, mpath)
		return Info{}, fmt.Errorf("snapshot: write blob: %w", err)
	}
	if err := m.advance(ctx, name, version); err != nil {
		return Info{}, fmt.Errorf("snapshot: update CURRENT: %w", err)
	}
	return candidate, nil
}

// advance points CURRENT at version unless it already names a newer one.
func (m *Manager) advance(ctx context.Context, name string, version uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpath := currentPath(name)
	pointer := []byte(manifestPath(name, version))
	swapper, canSwap := m.store.(blobstore.SwapStore)

	for {
		old, err := m.readSmall(ctx, cpath)
		switch {
		case errors.Is(err, blobstore.ErrNotFound):
			old = nil
		case err != nil:
			return err
		default:
			if cur, ok := manifestVersion(strings.TrimSpace(string(old))); ok && cur >= version {
				return nil
			}
		}

		if !canSwap {
			return m.store.Put(ctx, cpath, pointer)
		}
		err = swapper.CompareAndSwap(ctx, cpath, old, pointer)
		if !errors.Is(err, blobstore.ErrConflict) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// manifestVersion parses the version out of a MANIFEST-<version>.json path.
func manifestVersion(p string) (uint64, bool) {
	base := path.Base(p)
	if !strings.HasPrefix(base, "MANIFEST-") || !strings.HasSuffix(base, ".json") {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(base, "MANIFEST-"), ".json"), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// claim writes a manifest only if its version is still free. Stores
// without conditional writes fall back to a plain Put.
func (m *Manager) claim(ctx context.Context, mpath string, manifest []byte) error {
	cs, ok := m.store.(blobstore.ConditionalStore)
	if !ok {
		return m.store.Put(ctx, mpath, manifest)
	}
	err := cs.PutIfNotExists(ctx, mpath, manifest)
	if errors.Is(err, blobstore.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrVersionConflict, mpath)
	}
	return err
}

func (m *Manager) writeBlob(ctx context.Context, name string, hdr, payload []byte) error {
	w, err := m.store.Create(ctx, name)
	if err != nil {
		return err
	}

	var dst io.Writer = w
	if m.opts.controller != nil {
		dst = resource.NewRateLimitedWriter(ctx, w, m.opts.controller)
	}
	if _, err = dst.Write(hdr); err == nil {
		_, err = dst.Write(payload)
	}
	if err == nil {
		err = w.Sync()
	}
	if err != nil {
		_ = blobstore.Abort(w)
		return err
	}
	return w.Close()
}

// Versions returns the saved versions of name in ascending order.
func (m *Manager) Versions(ctx context.Context, name string) ([]uint64, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	names, err := m.store.List(ctx, name+"/")
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", name, err)
	}

	var versions []uint64
	for _, n := range names {
		if path.Dir(n) != name {
			continue
		}
		if v, ok := manifestVersion(n); ok {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// Current returns the manifest CURRENT points to.
func (m *Manager) Current(ctx context.Context, name string) (Info, error) {
	if err := validName(name); err != nil {
		return Info{}, err
	}
	pointer, err := m.readSmall(ctx, currentPath(name))
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: read CURRENT of %s: %w", name, err)
	}
	return m.readManifest(ctx, strings.TrimSpace(string(pointer)))
}

// Info returns the manifest of a specific version.
func (m *Manager) Info(ctx context.Context, name string, version uint64) (Info, error) {
	if err := validName(name); err != nil {
		return Info{}, err
	}
	return m.readManifest(ctx, manifestPath(name, version))
}

func (m *Manager) readManifest(ctx context.Context, mpath string) (Info, error) {
	data, err := m.readSmall(ctx, mpath)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: read manifest %s: %w", mpath, err)
	}
	info, err := m.opts.codec.Decode(data)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: decode manifest %s: %w", mpath, err)
	}
	if err := checkManifest(mpath, info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (m *Manager) readSmall(ctx context.Context, name string) ([]byte, error) {
	b, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()
	return blobstore.ReadAll(ctx, b)
}

// readBlob returns the bytes of a snapshot blob. Mappable blobs are read
// in place unless IO is rate-limited; release must be called when the
// bytes are no longer needed.
func (m *Manager) readBlob(ctx context.Context, name string) (data []byte, release func(), err error) {
	b, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	release = func() { _ = b.Close() }

	if mb, ok := b.(blobstore.Mappable); ok && m.opts.controller == nil {
		if data, err = mb.Bytes(); err == nil {
			return data, release, nil
		}
	}

	defer release()
	if b.Size() == 0 {
		return nil, func() {}, nil
	}
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rc.Close() }()

	var src io.Reader = rc
	if m.opts.controller != nil {
		src = resource.NewRateLimitedReader(ctx, rc, m.opts.controller)
	}
	data, err = io.ReadAll(src)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}

// Load32 loads the current version of a snapshot with 32-bit keys.
func (m *Manager) Load32(ctx context.Context, name string) (*bsi.Index[uint32], error) {
	return load[uint32](ctx, m, name)
}

// Load64 loads the current version of a snapshot with 64-bit keys.
func (m *Manager) Load64(ctx context.Context, name string) (*bsi.Index[uint64], error) {
	return load[uint64](ctx, m, name)
}

func load[K bitmap.Key](ctx context.Context, m *Manager, name string) (x *bsi.Index[K], err error) {
	var (
		version uint64
		size    int64
	)
	defer func() { m.opts.logger.LogSnapshot(ctx, "load", name, version, size, err) }()

	info, err := m.Current(ctx, name)
	if err != nil {
		return nil, err
	}
	version = info.Version

	data, release, err := m.readBlob(ctx, info.Blob)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read blob %s: %w", info.Blob, err)
	}
	defer release()
	size = int64(len(data))

	raw, hdr, err := decodeBlob(data, keyWidthOf[K]())
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", info.Blob, err)
	}
	x, err = bsi.Decode[K](bytes.NewReader(raw), hdr.Profile, m.opts.indexOpts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", info.Blob, err)
	}
	return x, nil
}

// decodeBlob validates a snapshot blob and returns its uncompressed payload.
func decodeBlob(data []byte, width uint8) ([]byte, header, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, header{}, err
	}
	if hdr.KeyWidth != width {
		return nil, header{}, fmt.Errorf("%w: stored %d bytes, want %d", ErrKeyWidth, hdr.KeyWidth, width)
	}
	stored, err := hdr.payload(data)
	if err != nil {
		return nil, header{}, err
	}
	raw, err := compress.Decompress(stored, hdr.Compression)
	if err != nil {
		return nil, header{}, err
	}
	if uint64(len(raw)) != hdr.RawLen {
		return nil, header{}, fmt.Errorf("%w: raw length %d, want %d", ErrInvalidHeader, len(raw), hdr.RawLen)
	}
	return raw, hdr, nil
}

// Delete removes one version of name. The current version cannot be
// deleted.
func (m *Manager) Delete(ctx context.Context, name string, version uint64) (err error) {
	defer func() { m.opts.logger.LogSnapshot(ctx, "delete", name, version, 0, err) }()

	cur, err := m.Current(ctx, name)
	switch {
	case err == nil && cur.Version == version:
		return fmt.Errorf("%w: %s@%d", ErrCurrentVersion, name, version)
	case err != nil && !errors.Is(err, blobstore.ErrNotFound):
		return err
	}

	if err := m.store.Delete(ctx, blobPath(name, version)); err != nil {
		return fmt.Errorf("snapshot: delete blob: %w", err)
	}
	if err := m.store.Delete(ctx, manifestPath(name, version)); err != nil {
		return fmt.Errorf("snapshot: delete manifest: %w", err)
	}
	return nil
}
