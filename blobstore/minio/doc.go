// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and any other S3-compatible server (Ceph, Garage,
// SeaweedFS) and is the usual choice for air-gapped catalog deployments.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "catalogs", "prod/")
//	cat, err := catalog.LoadSnapshot(ctx, store, "catalog.json.zst", nil)
package minio
