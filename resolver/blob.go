package resolver

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/chozen2see/catalogsearch/blobstore"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/chozen2see/catalogsearch/internal/cache"
)

// DefaultBlobCacheBytes is the default size of a Blob source's LRU.
const DefaultBlobCacheBytes = 8 << 20

// Blob is a Source reading one document per blob. The ref key is the blob
// name below an optional prefix; its extension selects the compression.
type Blob struct {
	store  blobstore.BlobStore
	codec  codec.Codec
	prefix string
	cache  *cache.LRU
}

// BlobOption configures a Blob source.
type BlobOption func(*Blob)

// WithCodec sets the document codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) BlobOption {
	return func(b *Blob) { b.codec = c }
}

// WithPrefix places every key below prefix.
func WithPrefix(prefix string) BlobOption {
	return func(b *Blob) { b.prefix = prefix }
}

// WithCacheBytes sets the LRU capacity. Zero disables caching.
func WithCacheBytes(n int64) BlobOption {
	return func(b *Blob) { b.cache = cache.NewLRU(n) }
}

// NewBlob creates a Blob source over store.
func NewBlob(store blobstore.BlobStore, opts ...BlobOption) *Blob {
	b := &Blob{
		store: store,
		codec: codec.Default,
		cache: cache.NewLRU(DefaultBlobCacheBytes),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch loads and decodes the document named key.
func (b *Blob) Fetch(ctx context.Context, key string) (catalog.Document, error) {
	name := key
	if b.prefix != "" {
		name = path.Join(b.prefix, key)
	}

	data, ok := b.cache.Get(name)
	if !ok {
		var err error
		data, err = blobstore.ReadAll(ctx, b.store, name)
		if errors.Is(err, blobstore.ErrNotFound) {
			return catalog.Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			return catalog.Document{}, err
		}
		b.cache.Set(name, data)
	}

	var d catalog.Document
	if err := catalog.DecodeDocument(b.codec, name, data, &d); err != nil {
		// Don't keep bytes that will never decode.
		b.cache.Remove(name)
		return catalog.Document{}, err
	}
	return d, nil
}

// Preload lists the documents below the source's prefix and reads them into
// the cache until it is full. Documents too large for the remaining space are
// skipped, as are blobs deleted or replaced while preloading. It returns the
// number of documents cached.
func (b *Blob) Preload(ctx context.Context) (int, error) {
	prefix := b.prefix
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}
	names, err := b.store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var (
		loaded int
		used   int64
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		data, err := blobstore.ReadAll(ctx, b.store, name)
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrChanged) {
			continue
		}
		if err != nil {
			return loaded, err
		}
		if used+int64(len(data)) > b.cache.Capacity() {
			continue
		}
		used += int64(len(data))
		b.cache.Set(name, data)
		loaded++
	}
	return loaded, nil
}

// CacheStats returns the LRU hit and miss counts.
func (b *Blob) CacheStats() (hits, misses int64) {
	return b.cache.Stats()
}
