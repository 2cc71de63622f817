package frechet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomPSD(t *testing.T, rng *rand.Rand, dim int) *mat.SymDense {
	t.Helper()

	r := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			r.Set(i, j, rng.NormFloat64())
		}
	}

	// RᵀR is symmetric positive semi-definite by construction.
	var prod mat.Dense
	prod.Mul(r.T(), r)
	return symmetrize(&prod)
}

func TestSqrtPSD(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		eye := identity(4)
		root, clamped, err := SqrtPSD(eye)
		require.NoError(t, err)
		assert.Zero(t, clamped)
		assertMatEqual(t, eye, root, 1e-12)
	})

	t.Run("Diagonal", func(t *testing.T) {
		a := mat.NewSymDense(2, []float64{4, 0, 0, 9})
		root, _, err := SqrtPSD(a)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, root.At(0, 0), 1e-12)
		assert.InDelta(t, 3.0, root.At(1, 1), 1e-12)
		assert.InDelta(t, 0.0, root.At(0, 1), 1e-12)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		a := randomPSD(t, rng, 6)

		root, _, err := SqrtPSD(a)
		require.NoError(t, err)

		var sq mat.Dense
		sq.Mul(root, root)
		assertMatEqual(t, a, symmetrize(&sq), 1e-8)
	})

	t.Run("SingularInput", func(t *testing.T) {
		// Rank-deficient: must produce a best-effort real root, not fail.
		a := mat.NewSymDense(2, []float64{1, 0, 0, 0})
		root, _, err := SqrtPSD(a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, root.At(0, 0), 1e-12)
		assert.InDelta(t, 0.0, root.At(1, 1), 1e-12)
	})
}

func TestTraceSqrtProduct(t *testing.T) {
	t.Run("IdentityProduct", func(t *testing.T) {
		tr, residue, _, err := traceSqrtProduct(identity(3), identity(3))
		require.NoError(t, err)
		assert.InDelta(t, 3.0, tr, 1e-12)
		assert.InDelta(t, 0.0, residue, 1e-9)
	})

	t.Run("MatchesEqualFactors", func(t *testing.T) {
		// sqrtm(A·A) = A for PSD A, so the trace must match trace(A).
		rng := rand.New(rand.NewSource(2))
		a := randomPSD(t, rng, 5)

		tr, _, _, err := traceSqrtProduct(a, a)
		require.NoError(t, err)
		assert.InDelta(t, mat.Trace(a), tr, 1e-8)
	})

	t.Run("SingularFactor", func(t *testing.T) {
		a := mat.NewSymDense(2, []float64{1, 0, 0, 0})
		tr, _, _, err := traceSqrtProduct(a, identity(2))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, tr, 1e-12)
	})
}

func identity(dim int) *mat.SymDense {
	eye := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		eye.SetSym(i, i, 1)
	}
	return eye
}

func assertMatEqual(t *testing.T, want, got mat.Matrix, delta float64) {
	t.Helper()

	r, c := want.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, want.At(i, j), got.At(i, j), delta, "entry (%d,%d)", i, j)
		}
	}
}
