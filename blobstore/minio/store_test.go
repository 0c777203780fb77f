package minio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/chozen2see/catalogsearch/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}
	bucket := "test-catalogsearch"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte(`{"id":"surge","name":"Storm Surge"}`)
	require.NoError(t, store.Put(ctx, "refs/surge.json", data))

	got, err := blobstore.ReadAll(ctx, store, "refs/surge.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "refs/")
	require.NoError(t, err)
	assert.Contains(t, names, "refs/surge.json")

	require.NoError(t, store.Delete(ctx, "refs/surge.json"))
	_, err = store.Open(ctx, "refs/surge.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(nil, "catalogs", "/prod/")
	assert.Equal(t, "prod/refs/storm.json", s.key("refs/storm.json"))

	name, ok := s.name("prod/refs/storm.json")
	assert.True(t, ok)
	assert.Equal(t, "refs/storm.json", name)

	_, ok = s.name("production/refs/storm.json")
	assert.False(t, ok)
	_, ok = s.name("prod/")
	assert.False(t, ok)

	bare := NewStore(nil, "catalogs", "")
	assert.Equal(t, "catalog.json", bare.key("catalog.json"))
	name, ok = bare.name("catalog.json")
	assert.True(t, ok)
	assert.Equal(t, "catalog.json", name)
}

func TestPutOptions(t *testing.T) {
	opts := putOptions("catalog.json.zst")
	assert.Equal(t, "application/zstd", opts.ContentType)
	assert.Equal(t, "zstd", opts.UserMetadata[CompressionMetadata])

	opts = putOptions("refs/storm.json")
	assert.Equal(t, "application/json", opts.ContentType)
	assert.Equal(t, "none", opts.UserMetadata[CompressionMetadata])
}

func TestBlob_MapErr(t *testing.T) {
	b := &minioBlob{etag: "abc"}

	assert.ErrorIs(t, b.mapErr(minio.ErrorResponse{Code: "PreconditionFailed"}), blobstore.ErrChanged)
	assert.ErrorIs(t, b.mapErr(minio.ErrorResponse{Code: "NoSuchKey"}), blobstore.ErrChanged)

	other := errors.New("connection reset")
	assert.Equal(t, other, b.mapErr(other))
}

func TestBlob_RangeOptions(t *testing.T) {
	b := &minioBlob{etag: "abc", size: 10}
	opts, err := b.rangeOptions(2, 5)
	require.NoError(t, err)
	h := opts.Header()
	assert.Equal(t, "bytes=2-5", h.Get("Range"))
	assert.Equal(t, `"abc"`, h.Get("If-Match"))

	b.etag = ""
	opts, err = b.rangeOptions(0, 9)
	require.NoError(t, err)
	assert.Empty(t, opts.Header().Get("If-Match"))
}
