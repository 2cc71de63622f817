package fidgo

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/fidgo/extractor"
	"github.com/hupe1980/fidgo/statcache"
)

type options[I any] struct {
	sampleCount      int
	workers          int
	strictMode       bool
	tolerance        float64
	epsilon          float64
	limiter          *rate.Limiter
	preprocessor     extractor.Preprocessor[I]
	compression      statcache.Compression
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Calculator construction.
//
// The fluent Builder is the primary configuration surface; options
// exist so programmatic callers can assemble configuration without
// chaining.
type Option[I any] func(*options[I])

// WithSampleCount sets the exact number of vectors drawn from each
// population. 0 means "consume the whole source". When set, the
// pipeline stops after exactly that many vectors, slicing the final
// batch if the target falls mid-batch; a source with fewer vectors
// fails with ErrInsufficientSamples.
func WithSampleCount[I any](n int) Option[I] {
	return func(o *options[I]) {
		o.sampleCount = n
	}
}

// WithWorkers sets the number of goroutines that extract and accumulate
// in parallel per population. Each worker owns a partial accumulator;
// the partials are merged at finalize time, so the statistics are
// independent of the partitioning. Default: 1.
func WithWorkers[I any](n int) Option[I] {
	return func(o *options[I]) {
		o.workers = n
	}
}

// WithStrictMode makes evaluation fail with *ErrNumericalInstability
// when the imaginary residue of the matrix square root exceeds the
// tolerance, instead of silently discarding it. Default: off, matching
// the reference behavior of the metric.
func WithStrictMode[I any](strict bool) Option[I] {
	return func(o *options[I]) {
		o.strictMode = strict
	}
}

// WithTolerance sets the absolute imaginary-residue threshold used by
// strict mode. Default: 1e-3.
func WithTolerance[I any](tol float64) Option[I] {
	return func(o *options[I]) {
		o.tolerance = tol
	}
}

// WithEpsilon sets the diagonal adjustment used when the matrix square
// root fails on a rank-deficient covariance product. Default: 1e-6.
func WithEpsilon[I any](eps float64) Option[I] {
	return func(o *options[I]) {
		o.epsilon = eps
	}
}

// WithRateLimit throttles extractor invocations to perSec batches per
// second with the given burst. Useful when the extractor fronts a
// shared inference service. 0 disables throttling.
func WithRateLimit[I any](perSec float64, burst int) Option[I] {
	return func(o *options[I]) {
		if perSec <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithPreprocessor sets the preprocessing collaborator applied to every
// raw batch before extraction, identically for both populations.
func WithPreprocessor[I any](p extractor.Preprocessor[I]) Option[I] {
	return func(o *options[I]) {
		o.preprocessor = p
	}
}

// WithCacheCompression sets the compression used when saving reference
// statistics. Default: zstd.
func WithCacheCompression[I any](c statcache.Compression) Option[I] {
	return func(o *options[I]) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector[I any](mc MetricsCollector) Option[I] {
	return func(o *options[I]) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger[I any](logger *Logger) Option[I] {
	return func(o *options[I]) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel[I any](level slog.Level) Option[I] {
	return func(o *options[I]) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions[I any](optFns []Option[I]) options[I] {
	o := options[I]{
		workers:          1,
		compression:      statcache.CompressionZstd,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
