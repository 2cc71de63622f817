// Package stats implements streaming accumulation of first and second
// sample moments over populations of fixed-width feature vectors.
//
// An Accumulator consumes batches of vectors and, once all batches have
// been ingested, finalizes them into an immutable Population holding
// the sample mean, the unbiased sample covariance and the sample count.
// Partial accumulators built on independent workers can be merged
// before finalization, enabling map-reduce style parallel ingestion.
package stats
