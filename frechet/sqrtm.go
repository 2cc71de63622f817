package frechet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SqrtPSD returns the principal square root of the symmetric
// positive-semi-definite matrix a, the unique symmetric root whose
// eigenvalues are non-negative.
//
// Eigenvalues that come out negative due to floating-point error or a
// rank-deficient input are clamped to zero, so a singular or slightly
// indefinite matrix still yields a real best-effort root rather than
// an error. The magnitude of the most negative eigenvalue is returned
// alongside the root so callers can judge how PSD the input really was.
func SqrtPSD(a *mat.SymDense) (*mat.SymDense, float64, error) {
	dim := a.SymmetricDim()

	var eig mat.EigenSym
	if !eig.Factorize(a, true) {
		return nil, 0, &ErrNumericalInstability{Matrix: "sqrtm input", Detail: "eigendecomposition did not converge"}
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	var clamped float64
	for i, v := range vals {
		if v < 0 {
			if -v > clamped {
				clamped = -v
			}
			v = 0
		}
		vals[i] = math.Sqrt(v)
	}

	// V·Λ½·Vᵀ
	var scaled, root mat.Dense
	scaled.Mul(&vecs, mat.NewDiagDense(dim, vals))
	root.Mul(&scaled, vecs.T())

	return symmetrize(&root), clamped, nil
}

// traceSqrtProduct returns trace(sqrtm(a·b)) for symmetric PSD a and b,
// together with the imaginary residue the clamping absorbed.
//
// The product a·b is not symmetric, but it shares its eigenvalues with
// the symmetric matrix sqrt(a)·b·sqrt(a), so the trace of the principal
// root can be computed entirely in real symmetric arithmetic. Negative
// eigenvalues of the symmetrized product are exactly where the textbook
// formulation would produce imaginary components: their square roots
// are reported as the residue and excluded from the trace.
func traceSqrtProduct(a, b *mat.SymDense) (trace, residue, maxEig float64, err error) {
	s, _, err := SqrtPSD(a)
	if err != nil {
		return 0, 0, 0, err
	}

	var sb, m mat.Dense
	sb.Mul(s, b)
	m.Mul(&sb, s)

	var eig mat.EigenSym
	if !eig.Factorize(symmetrize(&m), false) {
		return 0, 0, 0, &ErrNumericalInstability{Matrix: "sqrtm(cov_a·cov_b)", Detail: "eigendecomposition did not converge"}
	}

	var negMin float64
	for _, v := range eig.Values(nil) {
		if v > maxEig {
			maxEig = v
		}
		if v < 0 {
			if v < negMin {
				negMin = v
			}
			continue
		}
		trace += math.Sqrt(v)
	}
	if negMin < 0 {
		residue = math.Sqrt(-negMin)
	}

	return trace, residue, maxEig, nil
}

// symmetrize folds a nearly-symmetric dense matrix into a SymDense by
// averaging mirrored entries, absorbing the tiny asymmetry the chained
// multiplications introduce.
func symmetrize(m *mat.Dense) *mat.SymDense {
	r, _ := m.Dims()
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetSym(i, i, m.At(i, i))
		for j := i + 1; j < r; j++ {
			out.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return out
}

// addDiag returns a copy of a with eps added to every diagonal entry.
// Used by the conditioning fallback when the decomposition fails on a
// rank-deficient product.
func addDiag(a *mat.SymDense, eps float64) *mat.SymDense {
	dim := a.SymmetricDim()
	out := mat.NewSymDense(dim, nil)
	out.CopySym(a)
	for i := 0; i < dim; i++ {
		out.SetSym(i, i, out.At(i, i)+eps)
	}
	return out
}
