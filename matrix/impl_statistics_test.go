// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for standardization and reductions.
package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/protonn/matrix"
)

func TestStandardizeColumns(t *testing.T) {
	// col0: mean 2, std 1; col1: constant 5, std 0 (below floor ⇒ only centered)
	x := MustFrom(t, 3, 2, 1, 5, 2, 5, 3, 5)
	means := []float64{2, 5}
	stds := []float64{1, 0}

	out, err := matrix.StandardizeColumns(x, means, stds, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 0, 0, 1, 0}, out.RawData())
	assert.Equal(t, []float64{1, 5, 2, 5, 3, 5}, x.RawData(), "input must not change")

	slow, err := matrix.StandardizeColumns(hide{x}, means, []float64{2, 0}, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, 0, 0, 0, 0.5, 0}, slow.RawData())

	_, err = matrix.StandardizeColumns(x, []float64{1}, stds, 1e-6)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.StandardizeColumns(x, means, []float64{1}, 1e-6)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestFrobeniusSq(t *testing.T) {
	m := MustFrom(t, 2, 2, 1, -2, 0, 3)
	f, err := matrix.FrobeniusSq(m)
	require.NoError(t, err)
	assert.Equal(t, 14.0, f)

	f, err = matrix.FrobeniusSq(hide{m})
	require.NoError(t, err)
	assert.Equal(t, 14.0, f)

	_, err = matrix.FrobeniusSq(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestCountNonZero(t *testing.T) {
	m := MustFrom(t, 2, 3, 0, 1, 0, -0.5, 0, 2)
	n, err := matrix.CountNonZero(m)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = matrix.CountNonZero(hide{m})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestArgMaxRows_FirstMaxWins(t *testing.T) {
	m := MustFrom(t, 3, 3,
		1, 3, 3,
		-1, -2, -3,
		0, 0, 0,
	)
	idx, err := matrix.ArgMaxRows(m)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, idx)
}
