// Package s3 stores index snapshots in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	if err != nil {
//	    return err
//	}
//	mgr := snapshot.NewManager(store)
//
// Blobs are read with ranged GETs, written with multipart uploads, and
// small blobs such as manifests carry a CRC32C checksum that S3 verifies
// on arrival. PutIfNotExists uses conditional writes so two writers
// cannot publish the same snapshot version.
//
// S3 has no atomic rename for the CURRENT pointer. Deployments with
// several writers wrap the store in a DDBCommitStore, which serializes
// pointer updates through DynamoDB conditional puts.
package s3
