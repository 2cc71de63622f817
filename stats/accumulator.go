package stats

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyPopulation is returned by Finalize when no vectors have been
// ingested. A Population never claims N=0.
var ErrEmptyPopulation = errors.New("empty population: no vectors ingested")

// ErrDimensionMismatch indicates a feature-vector dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Population holds the finalized sample statistics of one population of
// feature vectors. It is immutable once returned by Finalize.
type Population struct {
	// Mean is the component-wise sample mean, length D.
	Mean []float64
	// Cov is the D×D unbiased sample covariance matrix.
	// When N == 1 the covariance is undefined; Cov is the zero matrix.
	Cov *mat.SymDense
	// N is the number of vectors the statistics were computed from, >= 1.
	N int
}

// Dimension returns the feature width D.
func (p *Population) Dimension() int {
	return len(p.Mean)
}

// Accumulator accumulates running sums for the mean and covariance of a
// population of feature vectors without retaining the vectors themselves.
//
// An Accumulator is NOT safe for concurrent use. For parallel ingestion,
// give each worker its own Accumulator and combine them with Merge; the
// merge is associative and commutative, so any partition of the input
// yields the same statistics.
type Accumulator struct {
	dim   int
	n     int
	sum   []float64 // running component-wise sum, length dim
	outer []float64 // running sum of v·vᵀ, row-major dim×dim, upper triangle only
	final *Population
}

// NewAccumulator creates an Accumulator whose dimension is latched from
// the first ingested vector.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// NewAccumulatorDim creates an Accumulator with a fixed, pre-declared
// dimension. Every ingested vector must have exactly this width.
func NewAccumulatorDim(dim int) *Accumulator {
	a := &Accumulator{}
	if dim > 0 {
		a.init(dim)
	}
	return a
}

func (a *Accumulator) init(dim int) {
	a.dim = dim
	a.sum = make([]float64, dim)
	a.outer = make([]float64, dim*dim)
}

// Dimension returns the feature width D, or 0 if nothing has been
// ingested into a dimension-latching Accumulator yet.
func (a *Accumulator) Dimension() int {
	return a.dim
}

// Count returns the number of vectors ingested so far.
func (a *Accumulator) Count() int {
	return a.n
}

// Ingest adds a batch of feature vectors to the running sums.
//
// All rows are validated before any state is touched: a batch containing
// a row of the wrong width is rejected wholesale with
// *ErrDimensionMismatch and contributes nothing. An empty batch is a
// no-op. Ingesting after Finalize is permitted and invalidates the
// cached result.
func (a *Accumulator) Ingest(batch [][]float32) error {
	if len(batch) == 0 {
		return nil
	}

	dim := a.dim
	if dim == 0 {
		dim = len(batch[0])
		if dim == 0 {
			return &ErrDimensionMismatch{Expected: 1, Actual: 0}
		}
	}
	for _, v := range batch {
		if len(v) != dim {
			return &ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
	}

	if a.dim == 0 {
		a.init(dim)
	}
	a.final = nil

	for _, v := range batch {
		for i, x := range v {
			xi := float64(x)
			a.sum[i] += xi
			row := a.outer[i*dim:]
			for j := i; j < dim; j++ {
				row[j] += xi * float64(v[j])
			}
		}
	}
	a.n += len(batch)

	return nil
}

// Merge folds the running sums of other into a. Both accumulators must
// share a dimension; merging an empty accumulator is a no-op, and
// merging into an empty accumulator adopts the other's state. The other
// accumulator is left untouched.
func (a *Accumulator) Merge(other *Accumulator) error {
	if other == nil || other.n == 0 {
		return nil
	}
	if a.n == 0 {
		if a.dim != 0 && a.dim != other.dim {
			return &ErrDimensionMismatch{Expected: a.dim, Actual: other.dim}
		}
		if a.dim == 0 {
			a.init(other.dim)
		}
		copy(a.sum, other.sum)
		copy(a.outer, other.outer)
		a.n = other.n
		a.final = nil
		return nil
	}
	if other.dim != a.dim {
		return &ErrDimensionMismatch{Expected: a.dim, Actual: other.dim}
	}

	a.final = nil
	for i := range a.sum {
		a.sum[i] += other.sum[i]
	}
	for i := range a.outer {
		a.outer[i] += other.outer[i]
	}
	a.n += other.n

	return nil
}

// Finalize closes the accumulation and computes the population
// statistics. The covariance uses the unbiased N-1 divisor and is
// symmetric by construction (the outer-product sum only ever tracks the
// upper triangle, so no floating-point asymmetry can creep in).
//
// The result is cached: calling Finalize again without further
// ingestion returns the identical Population. Finalize before any
// Ingest fails with ErrEmptyPopulation.
//
// When exactly one vector was ingested the covariance is undefined;
// by policy Finalize succeeds and returns the zero matrix, leaving it
// to the evaluator's diagnostics to flag the degenerate estimate.
func (a *Accumulator) Finalize() (*Population, error) {
	if a.final != nil {
		return a.final, nil
	}
	if a.n == 0 {
		return nil, ErrEmptyPopulation
	}

	dim := a.dim
	n := float64(a.n)

	mean := make([]float64, dim)
	for i, s := range a.sum {
		mean[i] = s / n
	}

	cov := mat.NewSymDense(dim, nil)
	if a.n > 1 {
		inv := 1 / (n - 1)
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				s := a.outer[i*dim+j]
				cov.SetSym(i, j, (s-n*mean[i]*mean[j])*inv)
			}
		}
	}

	a.final = &Population{Mean: mean, Cov: cov, N: a.n}

	return a.final, nil
}
