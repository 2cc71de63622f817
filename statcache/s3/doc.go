// Package s3 provides an AWS S3 implementation of the statcache.Store
// interface, for sharing precomputed reference statistics across
// machines and runs.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "fid-stats/")
//
//	pop, err := statcache.Load(ctx, store, "imagenet-train-2048.fids")
package s3
