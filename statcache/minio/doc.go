// Package minio provides a MinIO (and S3-compatible) implementation of
// the statcache.Store interface.
//
// # Usage
//
//	client, err := minio.New("play.min.io", &minio.Options{...})
//	store := miniostore.NewStore(client, "my-bucket", "fid-stats/")
package minio
