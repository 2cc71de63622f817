package fidgo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fidgo/extractor"
	"github.com/hupe1980/fidgo/frechet"
	"github.com/hupe1980/fidgo/statcache"
	"github.com/hupe1980/fidgo/stats"
)

// Population labels used in logs and error messages.
const (
	PopulationReal      = "real"
	PopulationGenerated = "generated"
)

// Calculator computes Frechet distances between populations of feature
// vectors drawn through a fixed extractor. It is immutable after Build
// and safe for concurrent use; each computation owns its accumulators.
type Calculator[I any] struct {
	extractor extractor.Extractor[I]
	opts      options[I]
}

// NewCalculator creates a Calculator from an extractor and options.
// Most callers use the fluent Builder via New instead.
func NewCalculator[I any](e extractor.Extractor[I], optFns ...Option[I]) (*Calculator[I], error) {
	if e == nil {
		return nil, ErrNilExtractor
	}

	o := applyOptions(optFns)
	if o.sampleCount < 0 {
		return nil, ErrInvalidSampleCount
	}
	if o.workers < 1 {
		o.workers = 1
	}

	return &Calculator[I]{
		extractor: e,
		opts:      o,
	}, nil
}

// Compute draws both populations through the extractor and returns
// their Frechet distance.
//
// The two accumulation passes share no state and run concurrently; the
// sources are consumed once. Cancelling ctx aborts both passes.
func (c *Calculator[I]) Compute(ctx context.Context, realSource, generatedSource extractor.Source[I]) (*frechet.Result, error) {
	var popReal, popGenerated *stats.Population

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.accumulate(gctx, PopulationReal, realSource)
		popReal = p
		return err
	})
	g.Go(func() error {
		p, err := c.accumulate(gctx, PopulationGenerated, generatedSource)
		popGenerated = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.Evaluate(ctx, popReal, popGenerated)
}

// ComputeWithReference scores a generated source against precomputed
// reference statistics, e.g. loaded via LoadReference.
func (c *Calculator[I]) ComputeWithReference(ctx context.Context, reference *stats.Population, generatedSource extractor.Source[I]) (*frechet.Result, error) {
	popGenerated, err := c.accumulate(ctx, PopulationGenerated, generatedSource)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ctx, reference, popGenerated)
}

// AccumulateStats draws one population through the extractor and
// returns its finalized statistics, honoring the configured sample
// count, workers and rate limit. Use it to precompute reference
// statistics for SaveReference.
func (c *Calculator[I]) AccumulateStats(ctx context.Context, source extractor.Source[I]) (*stats.Population, error) {
	return c.accumulate(ctx, PopulationReal, source)
}

// Evaluate computes the distance between two already-finalized
// populations using the Calculator's numerical configuration.
func (c *Calculator[I]) Evaluate(ctx context.Context, a, b *stats.Population) (*frechet.Result, error) {
	start := time.Now()
	res, err := frechet.Evaluate(a, b, func(o *frechet.Options) {
		o.StrictMode = c.opts.strictMode
		if c.opts.tolerance > 0 {
			o.Tolerance = c.opts.tolerance
		}
		if c.opts.epsilon > 0 {
			o.Epsilon = c.opts.epsilon
		}
	})
	c.opts.metricsCollector.RecordEvaluate(time.Since(start), err)
	if err != nil {
		c.opts.logger.LogEvaluate(ctx, 0, false, err)
		return nil, err
	}
	c.opts.logger.LogEvaluate(ctx, res.Distance, res.ComplexCorrected, nil)

	return res, nil
}

// SaveReference persists finalized population statistics to the store
// using the configured cache compression.
func (c *Calculator[I]) SaveReference(ctx context.Context, store statcache.Store, name string, pop *stats.Population) error {
	start := time.Now()
	err := statcache.Save(ctx, store, name, pop, c.opts.compression)
	c.opts.metricsCollector.RecordCacheSave(time.Since(start), err)
	c.opts.logger.LogCacheSave(ctx, name, err)
	return err
}

// LoadReference loads previously saved population statistics from the
// store.
func (c *Calculator[I]) LoadReference(ctx context.Context, store statcache.Store, name string) (*stats.Population, error) {
	start := time.Now()
	pop, err := statcache.Load(ctx, store, name)
	c.opts.metricsCollector.RecordCacheLoad(time.Since(start), err)
	c.opts.logger.LogCacheLoad(ctx, name, err)
	return pop, err
}

// accumulate runs one population's pass: dispatch raw batches from the
// source to workers, each of which preprocesses, extracts and ingests
// into its own partial accumulator. Partials are merged and finalized
// once the source is drained or the sample target is reached.
func (c *Calculator[I]) accumulate(ctx context.Context, population string, source extractor.Source[I]) (*stats.Population, error) {
	target := int64(c.opts.sampleCount)

	// remaining is the shared truncation budget. Workers reserve rows
	// out of it before ingesting, which is what makes the sample count
	// exact even with a partial final batch and concurrent workers.
	var remaining atomic.Int64
	if target > 0 {
		remaining.Store(target)
	} else {
		remaining.Store(math.MaxInt64)
	}

	// filled is closed when the budget is exhausted so the dispatcher
	// stops pulling from the source.
	filled := make(chan struct{})
	var fillOnce sync.Once
	markFilled := func() { fillOnce.Do(func() { close(filled) }) }

	accs := make([]*stats.Accumulator, c.opts.workers)
	for i := range accs {
		accs[i] = stats.NewAccumulator()
	}

	g, gctx := errgroup.WithContext(ctx)

	batches := make(chan I, c.opts.workers)
	g.Go(func() error {
		defer close(batches)
		for batch, err := range source {
			if err != nil {
				return fmt.Errorf("population %s: source: %w", population, err)
			}
			select {
			case batches <- batch:
			case <-filled:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, acc := range accs {
		g.Go(func() error {
			for batch := range batches {
				if c.opts.limiter != nil {
					if err := c.opts.limiter.Wait(gctx); err != nil {
						return err
					}
				}

				var err error
				if c.opts.preprocessor != nil {
					batch, err = c.opts.preprocessor.Preprocess(gctx, batch)
					if err != nil {
						return fmt.Errorf("population %s: preprocess: %w", population, err)
					}
				}

				start := time.Now()
				feats, err := c.extractor.Extract(gctx, batch)
				if err != nil {
					return fmt.Errorf("population %s: extract: %w", population, err)
				}
				if len(feats) == 0 {
					continue
				}

				take := reserve(&remaining, len(feats))
				if take == 0 {
					markFilled()
					return nil
				}

				err = acc.Ingest(feats[:take])
				c.opts.metricsCollector.RecordIngest(take, time.Since(start), err)
				c.opts.logger.LogIngest(gctx, population, take, err)
				if err != nil {
					return fmt.Errorf("population %s: %w", population, err)
				}

				if take < len(feats) || remaining.Load() == 0 {
					markFilled()
					return nil
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if target > 0 {
		if left := remaining.Load(); left > 0 {
			return nil, fmt.Errorf("%w: population %s is short %d of %d vectors", ErrInsufficientSamples, population, left, target)
		}
	}

	merged := accs[0]
	for _, acc := range accs[1:] {
		if err := merged.Merge(acc); err != nil {
			return nil, fmt.Errorf("population %s: %w", population, err)
		}
	}

	start := time.Now()
	pop, err := merged.Finalize()
	c.opts.metricsCollector.RecordFinalize(time.Since(start), err)
	if err != nil {
		c.opts.logger.LogFinalize(ctx, population, 0, 0, err)
		return nil, fmt.Errorf("population %s: %w", population, err)
	}
	c.opts.logger.LogFinalize(ctx, population, pop.N, pop.Dimension(), nil)

	return pop, nil
}

// reserve atomically claims up to n rows from the truncation budget and
// returns how many were granted.
func reserve(remaining *atomic.Int64, n int) int {
	for {
		cur := remaining.Load()
		if cur <= 0 {
			return 0
		}
		take := int64(n)
		if take > cur {
			take = cur
		}
		if remaining.CompareAndSwap(cur, cur-take) {
			return int(take)
		}
	}
}
