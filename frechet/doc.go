// Package frechet computes the Frechet distance between two populations
// of feature vectors, parameterized as multivariate Gaussians by their
// sample mean and covariance.
//
// The numerically delicate part is the principal square root of the
// covariance product. It is computed through the symmetrized form
// sqrt(A)·B·sqrt(A), whose eigendecomposition stays in real arithmetic:
// spurious imaginary components of the textbook formulation show up
// here as small negative eigenvalues, which are clamped and reported
// through the Result diagnostics.
package frechet
