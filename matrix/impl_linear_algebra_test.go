// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the linear-algebra kernels.
package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/protonn/matrix"
)

func TestSub(t *testing.T) {
	a := Seq(t, 2, 3)
	b := MustFrom(t, 2, 3, 6, 5, 4, 3, 2, 1)

	diff, err := matrix.Sub(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, -3, -1, 1, 3, 5}, RawOf(t, diff))

	// Operands are never mutated.
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, a.RawData())

	_, err = matrix.Sub(a, MustDense(t, 3, 2))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.Sub(nil, a)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestMul(t *testing.T) {
	// [1 2 3]   [1 0]   [ 4  5]
	// [4 5 6] · [0 1] = [10 11]
	//           [1 1]
	a := Seq(t, 2, 3)
	b := MustFrom(t, 3, 2, 1, 0, 0, 1, 1, 1)

	p, err := matrix.Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Rows())
	assert.Equal(t, 2, p.Cols())
	assert.Equal(t, []float64{4, 5, 10, 11}, RawOf(t, p))

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestMul_ZeroSkipping(t *testing.T) {
	a := MustFrom(t, 2, 2, 0, 2, 0, 0)
	b := MustFrom(t, 2, 2, 7, 7, 1, 3)
	p, err := matrix.Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 6, 0, 0}, RawOf(t, p))
}

func TestTranspose(t *testing.T) {
	m := Seq(t, 2, 3)
	tr, err := matrix.Transpose(m)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, RawOf(t, tr))

	_, err = matrix.Transpose(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestScaleHadamard(t *testing.T) {
	m := Seq(t, 2, 2)

	s, err := matrix.Scale(m, -0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, -1, -1.5, -2}, RawOf(t, s))

	h, err := matrix.Hadamard(m, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 9, 16}, RawOf(t, h))

	_, err = matrix.Hadamard(m, MustDense(t, 1, 4))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestKernels_FallbackMatchesFastPath runs every kernel with one operand
// hidden behind an interface wrapper and compares against the *Dense path.
func TestKernels_FallbackMatchesFastPath(t *testing.T) {
	a := MustFrom(t, 3, 3, 1, -2, 0, 4.5, 0, 3, -1, 2, 7)
	b := MustFrom(t, 3, 3, 0.5, 1, -1, 2, 0, 0, 3, -3, 1)

	type kernel func(x, y matrix.Matrix) (matrix.Matrix, error)
	for name, k := range map[string]kernel{
		"Sub":      matrix.Sub,
		"Mul":      matrix.Mul,
		"Hadamard": matrix.Hadamard,
		"Transpose": func(x, _ matrix.Matrix) (matrix.Matrix, error) {
			return matrix.Transpose(x)
		},
		"Scale": func(x, _ matrix.Matrix) (matrix.Matrix, error) {
			return matrix.Scale(x, 3)
		},
	} {
		t.Run(name, func(t *testing.T) {
			fast, err := k(a, b)
			require.NoError(t, err)
			slow, err := k(hide{a}, hide{b})
			require.NoError(t, err)
			ok, err := matrix.AllClose(fast, slow, 0, matrix.DefaultEpsilon)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
