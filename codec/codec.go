// Package codec centralizes catalog document encoding and snapshot compression.
//
// Snapshots written by catalog.SaveSnapshot record neither codec nor compression
// in-band; both are derived from the blob name (see ForName), so a snapshot
// named "catalog.json.zst" is always decoded with JSON and zstd.
package codec

import (
	"fmt"
	"path"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// ForName picks the compression for a blob name from its final extension.
// Names without a known compression extension are stored uncompressed.
func ForName(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
