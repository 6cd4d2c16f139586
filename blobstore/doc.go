// Package blobstore provides storage abstraction for published index files.
//
// BlobStore is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic writes and mmap reads
//   - MemoryStore: in-memory store for tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//   - s3.CommitStore: S3 plus a DynamoDB-backed CURRENT pointer
//
// # Current pointer
//
// A store may hold a blob named [Current] whose content is the name of the
// latest published index. [Publish] writes an index blob and then moves the
// pointer; [Resolve] follows it.
package blobstore
