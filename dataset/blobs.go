package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/protonn/rng"
)

// BlobOptions describes a synthetic classification problem: one isotropic
// Gaussian cluster per class.
//
//   - Classes, Dim     — number of labels and features.
//   - Train, Test      — rows per split; labels cycle 0,1,…,Classes-1.
//   - Separation       — standard deviation of the cluster centres.
//   - Noise            — standard deviation of points around their centre.
//   - Seed             — rng policy seed (0 ⇒ rng.DefaultSeed).
type BlobOptions struct {
	Classes, Dim      int
	Train, Test       int
	Separation, Noise float64
	Seed              int64
}

// DefaultBlobOptions returns a well separated 4-class, 10-feature problem with
// 400 train and 100 test rows.
func DefaultBlobOptions() BlobOptions {
	return BlobOptions{
		Classes:    4,
		Dim:        10,
		Train:      400,
		Test:       100,
		Separation: 5,
		Noise:      1,
	}
}

// Blobs generates raw [label, features…] rows for both splits and prepares
// them with FromRows, so the result is standardized and one-hot encoded like
// loaded data.
//
// Errors: ErrMalformed for non-positive sizes or negative spreads.
func Blobs(opts BlobOptions) (*Dataset, error) {
	if opts.Classes <= 0 || opts.Dim <= 0 || opts.Train <= 0 || opts.Test <= 0 ||
		opts.Separation < 0 || opts.Noise < 0 {
		return nil, fmt.Errorf("%w: blob options %+v", ErrMalformed, opts)
	}
	r := rng.Derive(opts.Seed, rng.StreamSynthetic)

	centers, err := rng.Normal(opts.Classes, opts.Dim, r)
	if err != nil {
		return nil, err
	}
	floats.Scale(opts.Separation, centers.RawData())

	gen := func(n int) *mat.Dense {
		rows := mat.NewDense(n, opts.Dim+1, nil)
		for i := 0; i < n; i++ {
			c := i % opts.Classes
			rows.Set(i, 0, float64(c))
			ci := centers.Row(c)
			for j := 0; j < opts.Dim; j++ {
				rows.Set(i, j+1, ci[j]+opts.Noise*r.NormFloat64())
			}
		}
		return rows
	}
	train := gen(opts.Train)
	test := gen(opts.Test)
	return FromRows(train, test)
}
