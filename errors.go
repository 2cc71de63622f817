package fidgo

import (
	"errors"

	"github.com/hupe1980/fidgo/frechet"
	"github.com/hupe1980/fidgo/stats"
)

// The typed errors of the lower layers are aliased here so callers can
// match the whole taxonomy against a single package with errors.As.
type (
	// ErrDimensionMismatch indicates inputs of differing feature width.
	ErrDimensionMismatch = stats.ErrDimensionMismatch

	// ErrNumericalInstability indicates a non-finite or untrustworthy
	// distance result.
	ErrNumericalInstability = frechet.ErrNumericalInstability
)

var (
	// ErrEmptyPopulation is returned when a population finalizes with
	// zero ingested vectors.
	ErrEmptyPopulation = stats.ErrEmptyPopulation

	// ErrInsufficientSamples is returned when a source runs dry before
	// the requested sample count is reached. The covariance estimate is
	// sensitive to the sample count, so fidgo refuses to silently score
	// a smaller population than asked for.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrNilExtractor is returned by Build when no extractor was provided.
	ErrNilExtractor = errors.New("extractor must not be nil")

	// ErrInvalidSampleCount is returned by Build for a negative sample count.
	ErrInvalidSampleCount = errors.New("sample count must be >= 0")
)
