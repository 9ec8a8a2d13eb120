// SPDX-License-Identifier: MIT

// Package matrix - public facade helpers (constructors, conversions, comparison).
package matrix

import "fmt"

// ZerosLike returns a zero Dense with the same shape as m.
func ZerosLike(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}

	return NewDense(m.Rows(), m.Cols())
}

// AsDense returns m itself when it already is a *Dense, otherwise a Dense copy
// built through At. Callers that mutate the result must Clone first when m
// may be a *Dense they do not own.
//
// Errors: ErrNilMatrix, wrapped At errors.
// Complexity: O(1) for *Dense, O(r*c) otherwise.
func AsDense(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}
	if d, ok := m.(*Dense); ok {
		return d, nil
	}
	out, err := NewDense(m.Rows(), m.Cols())
	if err != nil {
		return nil, err
	}
	var v float64
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, fmt.Errorf("AsDense: %w", err)
			}
			out.data[i*out.c+j] = v
		}
	}

	return out, nil
}

// AllClose reports whether a and b agree element-wise within
// |a-b| ≤ atol + rtol*|b|.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) { return ewAllClose(a, b, rtol, atol) }
