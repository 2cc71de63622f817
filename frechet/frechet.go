package frechet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fidgo/stats"
)

// spuriousEigRatio is the |λmin|/λmax ratio below which a negative
// eigenvalue of the symmetrized covariance product is treated as plain
// floating-point noise rather than a correction worth reporting.
const spuriousEigRatio = 1e-12

// ErrNumericalInstability indicates that the distance computation could
// not produce a trustworthy finite result: the final score was NaN or
// infinite, the eigendecomposition failed, or (in strict mode) the
// imaginary residue of the matrix square root exceeded the tolerance.
type ErrNumericalInstability struct {
	// Matrix names the matrix the instability was observed in.
	Matrix string
	// Residue is the magnitude of the clamped imaginary component,
	// zero when the failure was not residue-related.
	Residue float64
	// Detail carries additional context.
	Detail string
}

func (e *ErrNumericalInstability) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("numerical instability in %s: %s", e.Matrix, e.Detail)
	}
	return fmt.Sprintf("numerical instability in %s: imaginary residue %g", e.Matrix, e.Residue)
}

// Options contains configuration options for Evaluate.
type Options struct {
	// StrictMode fails with *ErrNumericalInstability when the imaginary
	// residue of the matrix square root exceeds Tolerance, instead of
	// silently discarding it. Off by default, matching the behavior of
	// the reference implementations of the metric.
	StrictMode bool

	// Tolerance is the absolute imaginary-residue threshold used by
	// StrictMode.
	Tolerance float64

	// Epsilon is added to the covariance diagonals when the square root
	// fails outright on a rank-deficient product; the retry is recorded
	// in the Result diagnostics.
	Epsilon float64
}

// DefaultOptions contains the default configuration options for Evaluate.
var DefaultOptions = Options{
	StrictMode: false,
	Tolerance:  1e-3,
	Epsilon:    1e-6,
}

// Result is the outcome of one distance evaluation. It is immutable.
type Result struct {
	// Distance is the Frechet distance between the two populations.
	Distance float64
	// MeanTerm is the squared L2 norm of the mean difference.
	MeanTerm float64
	// TraceTerm is trace(Σa + Σb − 2·sqrtm(Σa·Σb)).
	TraceTerm float64

	// ComplexCorrected reports that a non-negligible imaginary
	// component was discarded from the matrix square root. This is the
	// expected signature of a rank-deficient covariance, e.g. when the
	// sample count is smaller than the feature dimension.
	ComplexCorrected bool
	// ImagResidue is the magnitude of the discarded component.
	ImagResidue float64
	// Epsilon is the diagonal adjustment applied by the conditioning
	// fallback, 0 when the square root succeeded directly.
	Epsilon float64
}

// Evaluate computes the Frechet distance between two finalized
// populations:
//
//	d² = ||μa − μb||² + trace(Σa + Σb − 2·sqrtm(Σa·Σb))
//
// Evaluate is a pure function of its inputs and safe for concurrent
// use. Both populations must share a dimension; a mismatch fails with
// *stats.ErrDimensionMismatch. Singular covariances do not fail: the
// square root degrades gracefully and the Result diagnostics report
// what was corrected.
func Evaluate(a, b *stats.Population, optFns ...func(o *Options)) (*Result, error) {
	o := DefaultOptions
	for _, fn := range optFns {
		fn(&o)
	}

	if a.Dimension() != b.Dimension() {
		return nil, &stats.ErrDimensionMismatch{Expected: a.Dimension(), Actual: b.Dimension()}
	}

	var meanTerm float64
	for i, ma := range a.Mean {
		d := ma - b.Mean[i]
		meanTerm += d * d
	}

	traceSqrt, residue, maxEig, err := traceSqrtProduct(a.Cov, b.Cov)
	var eps float64
	if err != nil || !isFinite(traceSqrt) {
		// Rank-deficient products can defeat the decomposition outright.
		// Jitter the diagonals once and retry, as the reference
		// implementations of the metric do.
		eps = o.Epsilon
		traceSqrt, residue, maxEig, err = traceSqrtProduct(addDiag(a.Cov, eps), addDiag(b.Cov, eps))
		if err != nil {
			return nil, err
		}
	}

	corrected := residue > 0 && residue*residue > spuriousEigRatio*maxEig
	if o.StrictMode && corrected && residue > o.Tolerance {
		return nil, &ErrNumericalInstability{Matrix: "sqrtm(cov_a·cov_b)", Residue: residue}
	}

	traceTerm := mat.Trace(a.Cov) + mat.Trace(b.Cov) - 2*traceSqrt
	fid := meanTerm + traceTerm
	if !isFinite(fid) {
		return nil, &ErrNumericalInstability{Matrix: "distance", Detail: fmt.Sprintf("non-finite result %g", fid)}
	}

	return &Result{
		Distance:         fid,
		MeanTerm:         meanTerm,
		TraceTerm:        traceTerm,
		ComplexCorrected: corrected,
		ImagResidue:      residue,
		Epsilon:          eps,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
