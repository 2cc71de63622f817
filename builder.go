// Package fidgo provides distributional-distance scoring for generative models.
//
// This file implements the fluent builder API for creating and configuring
// Calculator instances. The builder is immutable - each method returns a new
// builder with the updated configuration.
package fidgo

import (
	"github.com/hupe1980/fidgo/extractor"
	"github.com/hupe1980/fidgo/statcache"
)

// New creates a new Calculator builder for the given feature extractor.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents
// accidental state sharing.
//
// Example:
//
//	calc, err := fidgo.New(myExtractor).
//	    SampleCount(50000).
//	    Workers(4).
//	    StrictMode(true).
//	    Build()
func New[I any](e extractor.Extractor[I]) Builder[I] {
	return Builder[I]{
		extractor:   e,
		workers:     1,
		compression: statcache.CompressionZstd,
	}
}

// Builder is an immutable fluent builder for creating Calculator instances.
// Each method returns a new builder with the updated configuration.
type Builder[I any] struct {
	extractor    extractor.Extractor[I]
	preprocessor extractor.Preprocessor[I]
	sampleCount  int
	workers      int
	strictMode   bool
	tolerance    float64
	epsilon      float64
	ratePerSec   float64
	rateBurst    int
	compression  statcache.Compression
	logger       *Logger
	metrics      MetricsCollector
}

// SampleCount sets the exact number of vectors drawn from each
// population; the pipeline stops after exactly that many, accepting a
// partial final batch. 0 (the default) consumes the whole source.
func (b Builder[I]) SampleCount(n int) Builder[I] {
	b.sampleCount = n
	return b
}

// Workers sets the number of parallel extraction/accumulation workers
// per population. Default: 1.
func (b Builder[I]) Workers(n int) Builder[I] {
	b.workers = n
	return b
}

// StrictMode enables failing on imaginary residues beyond the tolerance
// instead of silently discarding them.
// Default: false, matching the reference behavior of the metric.
func (b Builder[I]) StrictMode(strict bool) Builder[I] {
	b.strictMode = strict
	return b
}

// Tolerance sets the absolute imaginary-residue threshold for strict
// mode. Default: 1e-3.
func (b Builder[I]) Tolerance(tol float64) Builder[I] {
	b.tolerance = tol
	return b
}

// Epsilon sets the diagonal adjustment for the conditioning fallback.
// Default: 1e-6.
func (b Builder[I]) Epsilon(eps float64) Builder[I] {
	b.epsilon = eps
	return b
}

// RateLimit throttles extractor invocations to perSec batches per
// second with the given burst. 0 (the default) disables throttling.
func (b Builder[I]) RateLimit(perSec float64, burst int) Builder[I] {
	b.ratePerSec = perSec
	b.rateBurst = burst
	return b
}

// Preprocessor sets the preprocessing collaborator applied to every raw
// batch before extraction.
func (b Builder[I]) Preprocessor(p extractor.Preprocessor[I]) Builder[I] {
	b.preprocessor = p
	return b
}

// CacheCompression sets the compression for saved reference statistics.
// Default: zstd.
func (b Builder[I]) CacheCompression(c statcache.Compression) Builder[I] {
	b.compression = c
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder[I]) Logger(l *Logger) Builder[I] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder[I]) Metrics(mc MetricsCollector) Builder[I] {
	b.metrics = mc
	return b
}

// Build creates the Calculator.
func (b Builder[I]) Build() (*Calculator[I], error) {
	var opts []Option[I]
	if b.sampleCount != 0 {
		opts = append(opts, WithSampleCount[I](b.sampleCount))
	}
	if b.workers > 1 {
		opts = append(opts, WithWorkers[I](b.workers))
	}
	if b.strictMode {
		opts = append(opts, WithStrictMode[I](true))
	}
	if b.tolerance > 0 {
		opts = append(opts, WithTolerance[I](b.tolerance))
	}
	if b.epsilon > 0 {
		opts = append(opts, WithEpsilon[I](b.epsilon))
	}
	if b.ratePerSec > 0 {
		opts = append(opts, WithRateLimit[I](b.ratePerSec, b.rateBurst))
	}
	if b.preprocessor != nil {
		opts = append(opts, WithPreprocessor(b.preprocessor))
	}
	if b.compression != statcache.CompressionZstd {
		opts = append(opts, WithCacheCompression[I](b.compression))
	}
	if b.logger != nil {
		opts = append(opts, WithLogger[I](b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector[I](b.metrics))
	}

	return NewCalculator(b.extractor, opts...)
}

// MustBuild creates the Calculator, panicking on error.
func (b Builder[I]) MustBuild() *Calculator[I] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
