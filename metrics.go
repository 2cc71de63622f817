package fidgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordIngest is called after each batch is extracted and ingested.
	// count is the number of vectors ingested, duration covers
	// extraction plus accumulation, err is nil if successful.
	RecordIngest(count int, duration time.Duration, err error)

	// RecordFinalize is called after a population's statistics are
	// finalized.
	RecordFinalize(duration time.Duration, err error)

	// RecordEvaluate is called after each distance evaluation.
	RecordEvaluate(duration time.Duration, err error)

	// RecordCacheLoad is called after each reference-statistics load.
	RecordCacheLoad(duration time.Duration, err error)

	// RecordCacheSave is called after each reference-statistics save.
	RecordCacheSave(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFinalize(time.Duration, error)    {}
func (NoopMetricsCollector) RecordEvaluate(time.Duration, error)    {}
func (NoopMetricsCollector) RecordCacheLoad(time.Duration, error)   {}
func (NoopMetricsCollector) RecordCacheSave(time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCount        atomic.Int64
	IngestVectors      atomic.Int64
	IngestErrors       atomic.Int64
	IngestTotalNanos   atomic.Int64
	FinalizeCount      atomic.Int64
	FinalizeErrors     atomic.Int64
	EvaluateCount      atomic.Int64
	EvaluateErrors     atomic.Int64
	EvaluateTotalNanos atomic.Int64
	CacheLoadCount     atomic.Int64
	CacheLoadErrors    atomic.Int64
	CacheSaveCount     atomic.Int64
	CacheSaveErrors    atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(count int, duration time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestVectors.Add(int64(count))
	b.IngestTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IngestErrors.Add(1)
	}
}

// RecordFinalize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFinalize(duration time.Duration, err error) {
	b.FinalizeCount.Add(1)
	if err != nil {
		b.FinalizeErrors.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	b.EvaluateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// RecordCacheLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLoad(duration time.Duration, err error) {
	b.CacheLoadCount.Add(1)
	if err != nil {
		b.CacheLoadErrors.Add(1)
	}
}

// RecordCacheSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheSave(duration time.Duration, err error) {
	b.CacheSaveCount.Add(1)
	if err != nil {
		b.CacheSaveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:      b.IngestCount.Load(),
		IngestVectors:    b.IngestVectors.Load(),
		IngestErrors:     b.IngestErrors.Load(),
		IngestAvgNanos:   b.getAvgIngestNanos(),
		FinalizeCount:    b.FinalizeCount.Load(),
		FinalizeErrors:   b.FinalizeErrors.Load(),
		EvaluateCount:    b.EvaluateCount.Load(),
		EvaluateErrors:   b.EvaluateErrors.Load(),
		EvaluateAvgNanos: b.getAvgEvaluateNanos(),
		CacheLoadCount:   b.CacheLoadCount.Load(),
		CacheLoadErrors:  b.CacheLoadErrors.Load(),
		CacheSaveCount:   b.CacheSaveCount.Load(),
		CacheSaveErrors:  b.CacheSaveErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgIngestNanos() int64 {
	count := b.IngestCount.Load()
	if count == 0 {
		return 0
	}
	return b.IngestTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgEvaluateNanos() int64 {
	count := b.EvaluateCount.Load()
	if count == 0 {
		return 0
	}
	return b.EvaluateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IngestCount      int64
	IngestVectors    int64
	IngestErrors     int64
	IngestAvgNanos   int64
	FinalizeCount    int64
	FinalizeErrors   int64
	EvaluateCount    int64
	EvaluateErrors   int64
	EvaluateAvgNanos int64
	CacheLoadCount   int64
	CacheLoadErrors  int64
	CacheSaveCount   int64
	CacheSaveErrors  int64
}
