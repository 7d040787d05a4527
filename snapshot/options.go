package snapshot

import (
	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/internal/compress"
	"github.com/hupe1980/bsi/resource"
)

// Compression is the payload compression of a snapshot.
type Compression = compress.Algorithm

// Payload compressions.
const (
	NoCompression   Compression = compress.None
	LZ4Compression  Compression = compress.LZ4
	ZSTDCompression Compression = compress.ZSTD
)

type options struct {
	compression Compression
	profile     bsi.Profile
	codec       ManifestCodec
	logger      *bsi.Logger
	controller  *resource.Controller
	indexOpts   []bsi.Option
}

// Option configures a Manager.
type Option func(*options)

// WithCompression selects the payload compression. Default: NoCompression.
func WithCompression(alg Compression) Option {
	return func(o *options) { o.compression = alg }
}

// WithProfile selects the payload layout. Default: bsi.Fixed, which keeps
// uncompressed snapshots mappable.
func WithProfile(p bsi.Profile) Option {
	return func(o *options) { o.profile = p }
}

// WithManifestCodec sets the manifest codec. Default: GoJSON.
func WithManifestCodec(c ManifestCodec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger for saves and loads.
func WithLogger(l *bsi.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithController rate-limits snapshot IO through c.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithIndexOptions are passed to indexes built by Load32 and Load64.
func WithIndexOptions(optFns ...bsi.Option) Option {
	return func(o *options) { o.indexOpts = append(o.indexOpts, optFns...) }
}
