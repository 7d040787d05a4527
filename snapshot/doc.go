// Package snapshot persists bit-sliced indexes into a blobstore.BlobStore.
//
// Every Save writes three kinds of blobs under the snapshot name:
//
//	orders/00000000000000000003.bsi   header + payload
//	orders/MANIFEST-3.json            codec-encoded Info
//	orders/CURRENT                    path of the newest manifest
//
// The payload is the index in the chosen bsi.Profile, optionally
// block-compressed with LZ4 or ZSTD, and guarded by a CRC32 in the 32-byte
// header. Uncompressed Fixed snapshots written to a blobstore.LocalStore can
// be opened in place with OpenMapped32 or OpenMapped64.
//
//	mgr := snapshot.NewManager(store, snapshot.WithCompression(snapshot.ZSTDCompression))
//	info, err := mgr.Save(ctx, "orders", idx)
//	...
//	idx, err := mgr.Load32(ctx, "orders")
package snapshot
