package frechet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/fidgo/stats"
)

func randomPopulation(t *testing.T, rng *rand.Rand, dim, n int) *stats.Population {
	t.Helper()

	acc := stats.NewAccumulator()
	batch := make([][]float32, n)
	for i := range batch {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		batch[i] = v
	}
	require.NoError(t, acc.Ingest(batch))

	pop, err := acc.Finalize()
	require.NoError(t, err)
	return pop
}

func gaussian(mean []float64, cov *mat.SymDense, n int) *stats.Population {
	return &stats.Population{Mean: mean, Cov: cov, N: n}
}

func TestEvaluate_Reflexive(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pop := randomPopulation(t, rng, 8, 500)

	res, err := Evaluate(pop, pop)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Distance, 1e-6)
	assert.Zero(t, res.MeanTerm)
}

func TestEvaluate_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := randomPopulation(t, rng, 6, 300)
	b := randomPopulation(t, rng, 6, 300)

	ab, err := Evaluate(a, b)
	require.NoError(t, err)
	ba, err := Evaluate(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab.Distance, ba.Distance, 1e-8)
}

func TestEvaluate_NonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		a := randomPopulation(t, rng, 4, 100)
		b := randomPopulation(t, rng, 4, 100)

		res, err := Evaluate(a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Distance, -1e-8)
	}
}

func TestEvaluate_KnownScenarios(t *testing.T) {
	t.Run("ShiftedMeanIdentityCov", func(t *testing.T) {
		// d² = ||(1,1)-(0,0)||² + trace(I + I − 2·I) = 2.
		a := gaussian([]float64{1, 1}, identity(2), 1000)
		b := gaussian([]float64{0, 0}, identity(2), 1000)

		res, err := Evaluate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, res.Distance, 1e-9)
		assert.InDelta(t, 2.0, res.MeanTerm, 1e-12)
		assert.InDelta(t, 0.0, res.TraceTerm, 1e-9)
		assert.False(t, res.ComplexCorrected)
		assert.Zero(t, res.Epsilon)
	})

	t.Run("EqualStandardNormals", func(t *testing.T) {
		zero := make([]float64, 4)
		a := gaussian(zero, identity(4), 1000)
		b := gaussian(zero, identity(4), 1000)

		res, err := Evaluate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, res.Distance, 1e-9)
	})

	t.Run("ZeroCovariancePopulations", func(t *testing.T) {
		// Single-sample populations carry a zero covariance matrix;
		// the distance collapses to the squared mean difference.
		a := gaussian([]float64{3, 0}, mat.NewSymDense(2, nil), 1)
		b := gaussian([]float64{0, 4}, mat.NewSymDense(2, nil), 1)

		res, err := Evaluate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 25.0, res.Distance, 1e-12)
	})
}

func TestEvaluate_DimensionMismatch(t *testing.T) {
	a := gaussian([]float64{0, 0}, identity(2), 10)
	b := gaussian([]float64{0, 0, 0}, identity(3), 10)

	_, err := Evaluate(a, b)
	var dm *stats.ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
}

func TestEvaluate_ComplexCorrection(t *testing.T) {
	// An indefinite "covariance" (as a corrupted snapshot might carry)
	// drives a genuinely negative eigenvalue into the product. The
	// default policy clamps it and reports the residue.
	indefinite := mat.NewSymDense(2, []float64{-1, 0, 0, 1})
	a := gaussian([]float64{0, 0}, identity(2), 100)
	b := gaussian([]float64{0, 0}, indefinite, 100)

	t.Run("DefaultDiscardsAndReports", func(t *testing.T) {
		res, err := Evaluate(a, b)
		require.NoError(t, err)
		assert.True(t, res.ComplexCorrected)
		assert.InDelta(t, 1.0, res.ImagResidue, 1e-9)
		assert.False(t, math.IsNaN(res.Distance))
	})

	t.Run("StrictModeFails", func(t *testing.T) {
		_, err := Evaluate(a, b, func(o *Options) {
			o.StrictMode = true
		})
		var ni *ErrNumericalInstability
		require.ErrorAs(t, err, &ni)
		assert.InDelta(t, 1.0, ni.Residue, 1e-9)
	})

	t.Run("StrictModeWithLooseTolerancePasses", func(t *testing.T) {
		res, err := Evaluate(a, b, func(o *Options) {
			o.StrictMode = true
			o.Tolerance = 2.0
		})
		require.NoError(t, err)
		assert.True(t, res.ComplexCorrected)
	})
}

func TestEvaluate_NonFiniteResult(t *testing.T) {
	a := gaussian([]float64{math.NaN(), 0}, identity(2), 10)
	b := gaussian([]float64{0, 0}, identity(2), 10)

	_, err := Evaluate(a, b)
	var ni *ErrNumericalInstability
	require.ErrorAs(t, err, &ni)
	assert.Equal(t, "distance", ni.Matrix)
}

func TestEvaluate_RankDeficient(t *testing.T) {
	// Fewer samples than dimensions: the covariance has rank < D. The
	// evaluation must still produce a finite real score.
	rng := rand.New(rand.NewSource(6))
	a := randomPopulation(t, rng, 16, 8)
	b := randomPopulation(t, rng, 16, 8)

	res, err := Evaluate(a, b)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.Distance))
	assert.False(t, math.IsInf(res.Distance, 0))
	assert.GreaterOrEqual(t, res.Distance, -1e-8)
}
