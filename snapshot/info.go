package snapshot

import (
	"fmt"
	"path"
	"time"

	"github.com/hupe1980/bsi"
)

// Info describes a saved snapshot. It is the content of the manifest.
type Info struct {
	Name        string      `json:"name"`
	Version     uint64      `json:"version"`
	KeyWidth    uint8       `json:"key_width"`
	Profile     bsi.Profile `json:"profile"`
	Compression Compression `json:"compression"`
	Codec       string      `json:"codec"`
	Cardinality uint64      `json:"cardinality"`
	BitDepth    int         `json:"bit_depth"`
	Min         uint64      `json:"min"`
	Max         uint64      `json:"max"`
	Blob        string      `json:"blob"`
	Size        int64       `json:"size"`
	Created     time.Time   `json:"created"`
}

const currentName = "CURRENT"

func blobPath(name string, version uint64) string {
	return path.Join(name, fmt.Sprintf("%020d.bsi", version))
}

func manifestPath(name string, version uint64) string {
	return path.Join(name, fmt.Sprintf("MANIFEST-%d.json", version))
}

func currentPath(name string) string {
	return path.Join(name, currentName)
}
