package gamma

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/rng"
)

// Scale is the numerator of the heuristic: γ = Scale / median.
const Scale = 2.5

// degenerateTol is the relative size, against the largest projected
// coordinate, below which a median distance counts as zero. Lloyd centers are
// sums divided by counts and carry rounding residue of a few ulps.
const degenerateTol = 1e-12

// DefaultKMeansIters bounds the Lloyd iterations when Options.KMeansIters is 0.
const DefaultKMeansIters = 100

// Sentinel errors.
var (
	// ErrDegenerateMedian indicates a zero (up to rounding) or non-finite
	// median distance.
	ErrDegenerateMedian = errors.New("gamma: median distance is zero; provide gamma explicitly")

	// ErrTooFewSamples indicates fewer data rows than requested prototypes.
	ErrTooFewSamples = errors.New("gamma: fewer samples than prototypes")

	// ErrInvalidDimension indicates a non-positive projection dimension or
	// prototype count, or a supplied W of the wrong shape.
	ErrInvalidDimension = errors.New("gamma: invalid dimension")

	// ErrInvalidOptions indicates negative MaxSamples or KMeansIters.
	ErrInvalidOptions = errors.New("gamma: invalid options")
)

// Options tunes MedianHeuristic.
//
//   - MaxSamples  — rows used for clustering and the median (0 ⇒ all rows).
//     The subsample never has fewer than numPrototypes rows.
//   - KMeansIters — maximum Lloyd iterations (0 ⇒ DefaultKMeansIters).
//   - Seed        — stream seed for W, the subsample and k-means seeding.
//   - W           — optional D×d projection; nil draws a Gaussian one.
type Options struct {
	MaxSamples  int
	KMeansIters int
	Seed        int64
	W           matrix.Matrix
}

// DefaultOptions uses every row, DefaultKMeansIters and the default seed.
func DefaultOptions() Options {
	return Options{KMeansIters: DefaultKMeansIters}
}

// Estimate is the outcome of the heuristic.
type Estimate struct {
	Gamma  float64       // Scale / Median
	W      *matrix.Dense // D×d projection the distances were measured in
	B      *matrix.Dense // d×m k-means centers, one per column
	Median float64       // median prototype distance
}

// ProjectionExceedsData reports whether a projection of width d is wider than
// the data (d > D). The heuristic still runs, but its estimate is less reliable.
func ProjectionExceedsData(d, D int) bool { return d > D }

// MedianHeuristic estimates γ for a ProtoNN model with the given projection
// width and prototype count.
//
// Errors:
//   - matrix.ErrNilMatrix for a nil x.
//   - ErrInvalidDimension, ErrInvalidOptions, ErrTooFewSamples.
//   - ErrDegenerateMedian when all projected rows coincide.
//
// Complexity: O(n·D·d + iters·n·m·d + n·m·log(n·m)).
func MedianHeuristic(x matrix.Matrix, projectionDim, numPrototypes int, opts Options) (Estimate, error) {
	var est Estimate
	if err := matrix.ValidateNotNil(x); err != nil {
		return est, err
	}
	if projectionDim <= 0 || numPrototypes <= 0 {
		return est, fmt.Errorf("%w: projectionDim=%d numPrototypes=%d", ErrInvalidDimension, projectionDim, numPrototypes)
	}
	if opts.MaxSamples < 0 || opts.KMeansIters < 0 {
		return est, fmt.Errorf("%w: MaxSamples=%d KMeansIters=%d", ErrInvalidOptions, opts.MaxSamples, opts.KMeansIters)
	}
	n, dataDim := x.Rows(), x.Cols()
	if n < numPrototypes {
		return est, fmt.Errorf("%w: %d rows, %d prototypes", ErrTooFewSamples, n, numPrototypes)
	}
	iters := opts.KMeansIters
	if iters == 0 {
		iters = DefaultKMeansIters
	}

	// Stage 1: projection.
	w, err := projection(dataDim, projectionDim, opts)
	if err != nil {
		return est, err
	}

	// Stage 2: subsample.
	xd, err := matrix.AsDense(x)
	if err != nil {
		return est, err
	}
	if opts.MaxSamples > 0 && opts.MaxSamples < n {
		k := opts.MaxSamples
		if k < numPrototypes {
			k = numPrototypes
		}
		idx, err := rng.Sample(n, k, rng.Derive(opts.Seed, rng.StreamSubsample))
		if err != nil {
			return est, err
		}
		sort.Ints(idx)
		if xd, err = xd.SelectRows(idx); err != nil {
			return est, err
		}
	}

	// Stage 3: cluster in the projected space.
	pm, err := matrix.Mul(xd, w)
	if err != nil {
		return est, err
	}
	p := pm.(*matrix.Dense)
	centers, err := kmeans(p, numPrototypes, iters, rng.Derive(opts.Seed, rng.StreamKMeans))
	if err != nil {
		return est, err
	}
	bm, err := matrix.Transpose(centers)
	if err != nil {
		return est, err
	}

	// Stage 4: median distance and γ.
	dists := make([]float64, 0, p.Rows()*numPrototypes)
	for i := 0; i < p.Rows(); i++ {
		pi := p.Row(i)
		for j := 0; j < numPrototypes; j++ {
			dists = append(dists, floats.Distance(pi, centers.Row(j), 2))
		}
	}
	med := median(dists)
	span := floats.Norm(p.RawData(), math.Inf(1))
	if med <= degenerateTol*(1+span) || math.IsNaN(med) || math.IsInf(med, 0) {
		return est, fmt.Errorf("%w: median=%v", ErrDegenerateMedian, med)
	}

	est.W = w
	est.B = bm.(*matrix.Dense)
	est.Median = med
	est.Gamma = Scale / med
	return est, nil
}

// projection returns a copy of opts.W or a fresh Gaussian D×d matrix.
func projection(dataDim, projectionDim int, opts Options) (*matrix.Dense, error) {
	if opts.W == nil {
		return rng.Normal(dataDim, projectionDim, rng.Derive(opts.Seed, rng.StreamProjection))
	}
	if err := matrix.ValidateShape(opts.W, dataDim, projectionDim); err != nil {
		return nil, fmt.Errorf("%w: W: %v", ErrInvalidDimension, err)
	}
	w, err := matrix.AsDense(opts.W)
	if err != nil {
		return nil, err
	}
	return w.CloneDense(), nil
}

// median sorts vals in place and returns the middle value; an even count
// averages the two middle values. Empty input yields NaN.
func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
