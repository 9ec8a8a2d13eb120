// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide column standardization (z-scoring) as a deterministic composition
//     over the ew* micro-kernels.
//   - Reductions used by the size estimator and the loss (squared Frobenius
//     norm, non-zero count) and the per-row arg-max used for predictions.
//
// Exposed API:
//   - StandardizeColumns(X, means, stds, floor) -> Y // (X - mean) / std, std<floor → 1
//   - FrobeniusSq(X)                            -> Σ x²
//   - CountNonZero(X)                           -> #{x != 0}
//   - ArgMaxRows(X)                             -> first arg-max per row
//
// Determinism & Performance:
//   - Fixed i→j traversal for all explicit loops.
//   - Dense fast-paths avoid At/Set and operate on row-major flat buffers.

package matrix

import (
	"gonum.org/v1/gonum/floats"
)

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opStandardizeColumns = "StandardizeColumns"
	opFrobeniusSq        = "FrobeniusSq"
	opCountNonZero       = "CountNonZero"
	opArgMaxRows         = "ArgMaxRows"
)

// StandardizeColumns returns a copy of X with every column j mapped to
// (X[i,j] - means[j]) / stds[j]. Columns whose std is below floor are only
// centered (their scale is 1), so near-constant features never blow up.
//
// Implementation:
//   - Stage 1: Validate X and the broadcast vectors.
//   - Stage 2: ewBroadcastSubCols builds the centered copy.
//   - Stage 3: ewScaleColsInPlace multiplies by 1/std (or 1).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (len(means) or len(stds) != Cols).
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
//
// AI-Hints:
//   - Compute means/stds on the TRAIN split only and reuse them for the test split.
func StandardizeColumns(X Matrix, means, stds []float64, floor float64) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opStandardizeColumns, err)
	}
	if err := ValidateVecLen(stds, X.Cols()); err != nil {
		return nil, matrixErrorf(opStandardizeColumns, err)
	}
	out, err := ewBroadcastSubCols(X, means)
	if err != nil {
		return nil, matrixErrorf(opStandardizeColumns, err)
	}

	scale := make([]float64, len(stds))
	for j, s := range stds {
		if s < floor {
			scale[j] = 1
			continue
		}
		scale[j] = 1 / s
	}
	if err = ewScaleColsInPlace(out, scale); err != nil {
		return nil, matrixErrorf(opStandardizeColumns, err)
	}

	return out, nil
}

// FrobeniusSq returns the squared Frobenius norm Σ_ij X[i,j]².
//
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func FrobeniusSq(X Matrix) (float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return 0, matrixErrorf(opFrobeniusSq, err)
	}
	if d, ok := X.(*Dense); ok {
		return floats.Dot(d.data, d.data), nil
	}

	var sum, v float64
	var err error
	for i := 0; i < X.Rows(); i++ {
		for j := 0; j < X.Cols(); j++ {
			if v, err = X.At(i, j); err != nil {
				return 0, matrixErrorf(opFrobeniusSq, err)
			}
			sum += v * v
		}
	}

	return sum, nil
}

// CountNonZero returns the number of entries that are not exactly zero.
//
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func CountNonZero(X Matrix) (int, error) {
	if err := ValidateNotNil(X); err != nil {
		return 0, matrixErrorf(opCountNonZero, err)
	}
	var n int
	var err error
	var v float64
	if d, ok := X.(*Dense); ok {
		for _, v = range d.data {
			if v != 0 {
				n++
			}
		}
		return n, nil
	}
	for i := 0; i < X.Rows(); i++ {
		for j := 0; j < X.Cols(); j++ {
			if v, err = X.At(i, j); err != nil {
				return 0, matrixErrorf(opCountNonZero, err)
			}
			if v != 0 {
				n++
			}
		}
	}

	return n, nil
}

// ArgMaxRows returns, for each row, the column index of its maximum value.
// Ties resolve to the lowest column index.
//
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func ArgMaxRows(X Matrix) ([]int, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opArgMaxRows, err)
	}
	d, err := AsDense(X)
	if err != nil {
		return nil, matrixErrorf(opArgMaxRows, err)
	}
	out := make([]int, d.r)
	for i := 0; i < d.r; i++ {
		out[i] = floats.MaxIdx(d.data[i*d.c : (i+1)*d.c])
	}

	return out, nil
}
