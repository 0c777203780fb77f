package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/chozen2see/catalogsearch/blobstore"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/minio/minio-go/v7"
)

// CompressionMetadata is the user metadata key recording a document's
// compression on upload.
const CompressionMetadata = "Catalog-Compression"

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
//
// Open records the object's ETag and every range read is conditional on it,
// so a document replaced while being read fails with blobstore.ErrChanged
// instead of returning a mix of two versions.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a store over bucket. rootPrefix ("catalogs/prod") is
// prepended to every name.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(rootPrefix, "/"),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// name maps an object key back to a blob name. ok is false for keys outside
// the store's prefix.
func (s *Store) name(key string) (string, bool) {
	if s.prefix == "" {
		return key, key != ""
	}
	rest, ok := strings.CutPrefix(key, s.prefix+"/")
	return rest, ok && rest != ""
}

func errorCode(err error) string {
	return minio.ToErrorResponse(err).Code
}

func isNotFound(err error) bool {
	switch errorCode(err) {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open stats the object and returns a handle pinned to its current version.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &minioBlob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		etag:   info.ETag,
		size:   info.Size,
	}, nil
}

// Put uploads a document, labelling its media type and compression.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), putOptions(name))
	return err
}

func putOptions(name string) minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType:  blobstore.ContentType(name),
		UserMetadata: map[string]string{CompressionMetadata: codec.ForName(name).String()},
	}
}

// Delete removes a blob. Missing blobs are ignored.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the blob names below prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	listPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		// path.Join drops the trailing slash that scopes a listing to a directory.
		listPrefix += "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := s.name(obj.Key); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type minioBlob struct {
	client *minio.Client
	bucket string
	key    string
	etag   string
	size   int64
}

func (b *minioBlob) Size() int64 {
	return b.size
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	end := min(off+int64(len(p)), b.size) - 1

	opts, err := b.rangeOptions(off, end)
	if err != nil {
		return 0, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return 0, b.mapErr(err)
	}
	defer func() { _ = obj.Close() }()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err != nil {
		return n, b.mapErr(err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *minioBlob) rangeOptions(off, end int64) (minio.GetObjectOptions, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, end); err != nil {
		return opts, err
	}
	if b.etag != "" {
		if err := opts.SetMatchETag(b.etag); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (b *minioBlob) mapErr(err error) error {
	switch {
	case errorCode(err) == "PreconditionFailed":
		return blobstore.ErrChanged
	case isNotFound(err):
		// Deleted after Open.
		return blobstore.ErrChanged
	}
	return err
}

func (b *minioBlob) Close() error {
	return nil
}
