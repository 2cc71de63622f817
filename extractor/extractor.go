package extractor

import (
	"context"
	"iter"
)

// Extractor maps a batch of raw, preprocessed samples to fixed-width
// feature vectors. Implementations typically wrap a pretrained network
// with frozen weights; device placement and batch execution are
// implementation concerns and should be injected as configuration, not
// read from process-wide state.
//
// Extract must be deterministic: the same input batch yields the same
// feature rows. Every returned row must have width Dimension().
// Implementations must be safe for concurrent use when the pipeline
// runs with multiple workers.
type Extractor[I any] interface {
	// Dimension returns the feature width D.
	Dimension() int

	// Extract computes one feature vector per sample in the batch.
	Extract(ctx context.Context, batch I) ([][]float32, error)
}

// Preprocessor resizes and normalizes a raw batch to the extractor's
// input contract (spatial resolution, channel statistics). The pipeline
// applies it identically to both populations.
type Preprocessor[I any] interface {
	Preprocess(ctx context.Context, batch I) (I, error)
}

// Source is a lazy, single-pass sequence of raw batches. Iteration
// stops at the first non-nil error; a finite source simply returns.
type Source[I any] iter.Seq2[I, error]

// FromSlice returns a Source yielding the given batches in order.
func FromSlice[I any](batches []I) Source[I] {
	return func(yield func(I, error) bool) {
		for _, b := range batches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Func adapts a plain extraction function into an Extractor.
func Func[I any](dim int, fn func(ctx context.Context, batch I) ([][]float32, error)) Extractor[I] {
	return &funcExtractor[I]{dim: dim, fn: fn}
}

type funcExtractor[I any] struct {
	dim int
	fn  func(ctx context.Context, batch I) ([][]float32, error)
}

func (e *funcExtractor[I]) Dimension() int {
	return e.dim
}

func (e *funcExtractor[I]) Extract(ctx context.Context, batch I) ([][]float32, error) {
	return e.fn(ctx, batch)
}

// Features returns an Extractor for sources that already carry feature
// vectors, bypassing model inference. Useful when features were
// computed offline or by a remote service.
func Features(dim int) Extractor[[][]float32] {
	return Func(dim, func(_ context.Context, batch [][]float32) ([][]float32, error) {
		return batch, nil
	})
}
