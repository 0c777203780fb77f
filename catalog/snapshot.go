package catalog

import (
	"context"
	"fmt"

	"github.com/chozen2see/catalogsearch/blobstore"
	"github.com/chozen2see/catalogsearch/codec"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Snapshot is the persisted form of a catalog's top-level nodes.
type Snapshot struct {
	Version int        `json:"version"`
	Nodes   []Document `json:"nodes"`
}

// DecodeDocument decodes a possibly-compressed document blob. The compression
// is chosen from name (see codec.ForName).
func DecodeDocument(c codec.Codec, name string, data []byte, v any) error {
	if c == nil {
		c = codec.Default
	}
	raw, err := codec.Decompress(codec.ForName(name), data)
	if err != nil {
		return fmt.Errorf("decompress %q: %w", name, err)
	}
	if err := c.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", name, err)
	}
	return nil
}

// EncodeDocument is the inverse of DecodeDocument.
func EncodeDocument(c codec.Codec, name string, v any) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	raw, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", name, err)
	}
	return codec.Compress(codec.ForName(name), raw)
}

// FromSnapshot builds a catalog from a decoded snapshot.
func FromSnapshot(s Snapshot) (*Catalog, error) {
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d is newer than %d", ErrInvalidDocument, s.Version, SnapshotVersion)
	}
	c := New()
	for _, d := range s.Nodes {
		n, err := d.Build()
		if err != nil {
			return nil, err
		}
		c.Add(n)
	}
	return c, nil
}

// LoadSnapshot reads a catalog snapshot from store.
func LoadSnapshot(ctx context.Context, store blobstore.BlobStore, name string, c codec.Codec) (*Catalog, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var s Snapshot
	if err := DecodeDocument(c, name, data, &s); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return FromSnapshot(s)
}

// SaveSnapshot writes the catalog's top-level nodes to store. Members of
// loaded groups are written inline. Nodes that were registered by resolving a
// reference are left out; they reappear when the reference is resolved again.
func SaveSnapshot(ctx context.Context, store blobstore.BlobStore, name string, cat *Catalog, c codec.Codec) error {
	nested := make(map[string]struct{})
	for _, n := range cat.Nodes() {
		for _, m := range n.Members() {
			nested[m.ID()] = struct{}{}
		}
		if t := n.Target(); t != nil {
			for _, m := range t.Members() {
				nested[m.ID()] = struct{}{}
			}
		}
	}

	s := Snapshot{Version: SnapshotVersion}
	for _, n := range cat.Nodes() {
		if _, ok := nested[n.ID()]; ok {
			continue
		}
		s.Nodes = append(s.Nodes, DocumentOf(n))
	}

	data, err := EncodeDocument(c, name, s)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}
