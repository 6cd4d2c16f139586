// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	store := s3blob.NewStore(client, "my-bucket", "indexes/")
//
// Small blobs are written with a single PutObject carrying a CRC32-C
// checksum. Larger blobs go through the multipart upload manager.
//
// # Commit store
//
// S3 has no compare-and-swap, so concurrent publishers could overwrite each
// other's CURRENT pointer. CommitStore keeps the pointer in DynamoDB and
// advances it with conditional writes.
package s3
