// Package blobstore is the storage abstraction behind index snapshots.
//
// A BlobStore reads and writes immutable blobs by slash-separated name
// (snapshot payloads, manifests, commit pointers). Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process maps, for tests and ephemeral use
//   - LocalStore: a local directory with mmap reads and atomic renames
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: s3.Store plus a DynamoDB commit log for CURRENT
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that can expose their bytes without a copy implement Mappable.
package blobstore
