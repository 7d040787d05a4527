// Package minio stores index snapshots in MinIO or any other S3-compatible
// server (Ceph, Garage, SeaweedFS) through the official minio-go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "analytics", "indexes/")
//	mgr := snapshot.NewManager(store)
//
// Uploads stream through Create; reads use ranged GETs. No AWS SDK is
// required, which suits air-gapped deployments.
package minio
