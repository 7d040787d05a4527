package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"

	gojson "github.com/goccy/go-json"
)

// ErrInvalidManifest is returned when a manifest does not describe the
// snapshot version its path names.
var ErrInvalidManifest = errors.New("snapshot: invalid manifest")

// ManifestCodec encodes the Info stored in MANIFEST files. The built-in
// codecs both write plain JSON and read each other's output, so switching
// codecs never strands existing manifests.
type ManifestCodec interface {
	Name() string
	Encode(info Info) ([]byte, error)
	Decode(data []byte) (Info, error)
}

var (
	// StdJSON encodes manifests with encoding/json.
	StdJSON ManifestCodec = jsonCodec{name: "json", marshal: json.Marshal, unmarshal: json.Unmarshal}
	// GoJSON encodes manifests with github.com/goccy/go-json. It is the
	// default.
	GoJSON ManifestCodec = jsonCodec{name: "go-json", marshal: gojson.Marshal, unmarshal: gojson.Unmarshal}
)

type jsonCodec struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func (c jsonCodec) Name() string { return c.name }

func (c jsonCodec) Encode(info Info) ([]byte, error) { return c.marshal(info) }

func (c jsonCodec) Decode(data []byte) (Info, error) {
	var info Info
	if err := c.unmarshal(data, &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// checkManifest verifies that info is the manifest stored at mpath.
func checkManifest(mpath string, info Info) error {
	version, ok := manifestVersion(mpath)
	switch {
	case !ok:
		return fmt.Errorf("%w: %s is not a manifest path", ErrInvalidManifest, mpath)
	case info.Name != path.Dir(mpath):
		return fmt.Errorf("%w: %s names snapshot %q", ErrInvalidManifest, mpath, info.Name)
	case info.Version != version:
		return fmt.Errorf("%w: %s names version %d", ErrInvalidManifest, mpath, info.Version)
	case info.Blob != blobPath(info.Name, info.Version):
		return fmt.Errorf("%w: %s points at blob %q", ErrInvalidManifest, mpath, info.Blob)
	}
	return nil
}
