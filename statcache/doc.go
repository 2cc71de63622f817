// Package statcache persists finalized population statistics so that
// expensive reference passes (tens of thousands of extractor
// invocations) do not have to be recomputed for every scoring run.
//
// Snapshots use a small self-describing binary format (magic, version,
// compression byte, CRC32-C footer) and can live in memory, on the
// local filesystem, or in object storage via the minio and s3
// subpackages.
package statcache
