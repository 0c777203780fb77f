// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("catalogs/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	cat, err := catalog.LoadSnapshot(ctx, store, "catalog.json.zst", nil)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshots (via the s3 manager)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
