// Package blobstore provides read access to the published index resources.
//
// A search engine never writes shards; it only needs to open an immutable
// resource by name. BlobStore is that abstraction. Implementations must be
// safe for concurrent use and must report a missing resource with an error
// that satisfies errors.Is(err, ErrNotFound).
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system
//   - MemoryStore: in-memory, for tests
//   - httpstore.Store: a static web site (the usual deployment)
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible storage
//
// Compressed wraps any store whose resources were published with gzip, zstd
// or lz4 compression.
//
// # Optional Interfaces
//
// Stores that can fetch a whole resource in one request implement Fetcher;
// ReadAll prefers it over Open followed by a ranged read. Stores that accept
// writes (used by the index builder) implement Putter.
package blobstore
