// Package sparsity implements the hard-threshold projection used by
// iterative hard thresholding (IHT).
//
// The projection maps a matrix onto the set of matrices with at most
// ⌈s·N⌉ non-zero entries (N = rows·cols) by keeping the entries of largest
// absolute value and zeroing the rest.
//
// Tie policy:
//
//	Entries are ranked by |value| descending; equal magnitudes are ranked by
//	their row-major flat index ascending (a stable sort). The result is fully
//	deterministic and independent of the platform's sort implementation.
//
// Special cases:
//   - s == 1 keeps every entry (HardThreshold returns an unchanged copy).
//   - s == 0 zeroes every entry.
//
// Complexity:
//
//	Time  = O(N log N) for 0 < s < 1, O(N) otherwise
//	Space = O(N) for the magnitudes and the rank permutation
package sparsity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/protonn/matrix"
)

// keepTol absorbs floating-point error in s·n.
const keepTol = 1e-9

// ErrInvalidSparsity indicates a sparsity target outside [0,1] (or NaN).
var ErrInvalidSparsity = errors.New("sparsity: target must lie in [0,1]")

// Validate reports ErrInvalidSparsity unless 0 ≤ s ≤ 1.
func Validate(s float64) error {
	if math.IsNaN(s) || s < 0 || s > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSparsity, s)
	}
	return nil
}

// Keep returns how many entries survive a projection of n entries at
// sparsity s: ⌈s·n⌉ clamped to [0, n]. s is assumed valid.
// Products within keepTol above an integer count as that integer, so
// 0.07·100 keeps 7 entries rather than 8.
func Keep(n int, s float64) int {
	k := int(math.Ceil(s*float64(n) - keepTol))
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

// HardThreshold returns a copy of m that keeps only the Keep(N, s) entries of
// largest magnitude. m is never mutated.
//
// Errors:
//   - ErrInvalidSparsity for s outside [0,1].
//   - matrix.ErrNilMatrix for a nil input.
func HardThreshold(m matrix.Matrix, s float64) (*matrix.Dense, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	src, err := matrix.AsDense(m)
	if err != nil {
		return nil, fmt.Errorf("sparsity: HardThreshold: %w", err)
	}
	out := src.CloneDense()
	project(out.RawData(), s)

	return out, nil
}

// HardThresholdInPlace applies the same projection directly to m.
// The trainer uses it right after each optimizer step.
//
// Errors:
//   - ErrInvalidSparsity for s outside [0,1].
//   - matrix.ErrNilMatrix for a nil input.
func HardThresholdInPlace(m *matrix.Dense, s float64) error {
	if err := Validate(s); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("sparsity: HardThresholdInPlace: %w", matrix.ErrNilMatrix)
	}
	project(m.RawData(), s)

	return nil
}

// project zeroes all but the Keep(len(data), s) largest-magnitude entries.
func project(data []float64, s float64) {
	n := len(data)
	k := Keep(n, s)
	switch {
	case k >= n:
		return
	case k == 0:
		for i := range data {
			data[i] = 0
		}
		return
	}

	// Ascending −|v| is descending |v|; the stable sort keeps lower indices
	// first among equal magnitudes.
	mags := make([]float64, n)
	for i, v := range data {
		mags[i] = -math.Abs(v)
	}
	order := make([]int, n)
	floats.ArgsortStable(mags, order)
	for _, idx := range order[k:] {
		data[idx] = 0
	}
}
