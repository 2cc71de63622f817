// Package fidgo computes the Frechet distance between two populations
// of high-dimensional feature vectors, the score commonly used to
// compare a generative model's output distribution against real data
// (FID when the features come from an Inception network).
//
// The feature extractor is an injected collaborator: fidgo consumes
// feature vectors and produces a scalar plus numerical diagnostics. The
// heavy lifting is the streaming moment accumulation and the principal
// matrix square root of the covariance product, which must stay stable
// on finite-sample, possibly rank-deficient covariance estimates.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	calc, err := fidgo.New(myExtractor). // wraps the pretrained network
//	    SampleCount(50000).              // exactly 50k vectors per population
//	    Workers(4).                      // parallel extraction + accumulation
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//
//	result, err := calc.Compute(ctx, realSource, generatedSource)
//	if err != nil {
//	    panic(err)
//	}
//	fmt.Println(result.Distance, result.ComplexCorrected)
//
// # Cached Reference Statistics
//
// Reference statistics are expensive to compute and rarely change.
// Persist them once and score against the snapshot:
//
//	store, _ := statcache.NewLocalStore("./stats")
//	ref, err := calc.LoadReference(ctx, store, "cifar10-train.fids")
//	if errors.Is(err, statcache.ErrNotFound) {
//	    ref, _ = calc.AccumulateStats(ctx, realSource)
//	    _ = calc.SaveReference(ctx, store, "cifar10-train.fids", ref)
//	}
//	result, err := calc.ComputeWithReference(ctx, ref, generatedSource)
//
// # Numerical Diagnostics
//
// When the sample count is smaller than the feature dimension the
// covariance is rank-deficient and the matrix square root sheds a small
// imaginary component. By default fidgo discards it, like the reference
// implementations of the metric, and reports the magnitude in the
// Result. StrictMode(true) turns a residue beyond the tolerance into an
// *ErrNumericalInstability instead.
package fidgo
