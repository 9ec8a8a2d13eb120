package modelsize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/model"
	"github.com/katalvlaran/protonn/modelsize"
	"github.com/katalvlaran/protonn/sparsity"
)

func ones(t *testing.T, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	require.NoError(t, err)
	for i := range m.RawData() {
		m.RawData()[i] = 1
	}
	return m
}

// TestEstimate_DenseModel sizes a dense D=10, d=5, m=8, L=4 model:
// 5·10 + 8·5 + 4·8 = 122 float32 parameters, 488 bytes.
func TestEstimate_DenseModel(t *testing.T) {
	cfg := model.Config{DataDim: 10, ProjectionDim: 5, NumPrototypes: 8, NumClasses: 4, Gamma: 1}
	m, err := model.New(cfg, model.RandomInit{Seed: 1})
	require.NoError(t, err)
	w, b, z, _ := m.Matrices()
	mats := []matrix.Matrix{w, b, z}
	sps := []float64{1, 1, 1}

	exp, err := modelsize.Expected(mats, sps, modelsize.DefaultBytesPerVar)
	require.NoError(t, err)
	assert.Equal(t, 122, cfg.NumParams())
	assert.Equal(t, 122, exp.NonZeros)
	assert.Equal(t, 488, exp.Bytes)
	assert.False(t, exp.HasSparse)

	act, err := modelsize.Actual(mats, sps, modelsize.DefaultBytesPerVar)
	require.NoError(t, err)
	assert.Equal(t, cfg.NumParams(), act.NonZeros)
	assert.Equal(t, exp.Bytes, act.Bytes)
	assert.False(t, act.HasSparse)
}

func TestEstimate_ZeroSparsity(t *testing.T) {
	mats := []matrix.Matrix{ones(t, 4, 4)}
	exp, err := modelsize.Expected(mats, []float64{0}, 4)
	require.NoError(t, err)
	assert.Equal(t, modelsize.Report{NonZeros: 0, Bytes: 0, HasSparse: true}, exp)

	// Actual counts the real non-zeros even when they exceed the target.
	act, err := modelsize.Actual(mats, []float64{0}, 4)
	require.NoError(t, err)
	assert.Equal(t, 16, act.NonZeros)
	assert.Equal(t, 16*2*4, act.Bytes)
	assert.True(t, act.HasSparse)
}

func TestEstimate_SparseStorage(t *testing.T) {
	w := ones(t, 10, 10)
	require.NoError(t, sparsity.HardThresholdInPlace(w, 0.3))
	mats := []matrix.Matrix{w}

	exp, err := modelsize.Expected(mats, []float64{0.3}, 4)
	require.NoError(t, err)
	assert.Equal(t, 30, exp.NonZeros)
	assert.Equal(t, 30*2*4, exp.Bytes)

	act, err := modelsize.Actual(mats, []float64{0.3}, 4)
	require.NoError(t, err)
	assert.Equal(t, 30, act.NonZeros)
	assert.Equal(t, 30*2*4, act.Bytes)
}

// TestEstimate_HasSparseThresholds pins the differing HasSparse rules:
// expected flags any target below 1, actual only targets below 0.5.
func TestEstimate_HasSparseThresholds(t *testing.T) {
	mats := []matrix.Matrix{ones(t, 2, 5)}
	for _, tc := range []struct {
		s                  float64
		expected, actual   bool
		expBytes, actBytes int
	}{
		{0.8, true, false, 40, 40},
		{0.5, true, false, 5 * 2 * 4, 10 * 2 * 4},
		{0.4, true, true, 4 * 2 * 4, 10 * 2 * 4},
		{1, false, false, 40, 40},
	} {
		exp, err := modelsize.Expected(mats, []float64{tc.s}, 4)
		require.NoError(t, err)
		act, err := modelsize.Actual(mats, []float64{tc.s}, 4)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, exp.HasSparse, "expected s=%v", tc.s)
		assert.Equal(t, tc.actual, act.HasSparse, "actual s=%v", tc.s)
		assert.Equal(t, tc.expBytes, exp.Bytes, "expected bytes s=%v", tc.s)
		assert.Equal(t, tc.actBytes, act.Bytes, "actual bytes s=%v", tc.s)
	}
}

// TestActual_StorageFollowsTarget bills sparse storage from the target even
// when the measured matrix is fully dense.
func TestActual_StorageFollowsTarget(t *testing.T) {
	mats := []matrix.Matrix{ones(t, 3, 3)}

	act, err := modelsize.Actual(mats, []float64{0.2}, 4)
	require.NoError(t, err)
	assert.Equal(t, 9, act.NonZeros)
	assert.Equal(t, 9*2*4, act.Bytes)

	act, err = modelsize.Actual(mats, []float64{0.6}, 4)
	require.NoError(t, err)
	assert.Equal(t, 9*4, act.Bytes)
}

func TestEstimate_Errors(t *testing.T) {
	mats := []matrix.Matrix{ones(t, 2, 2)}

	_, err := modelsize.Estimate(mats, []float64{1, 1}, true, 4)
	require.ErrorIs(t, err, modelsize.ErrLengthMismatch)

	_, err = modelsize.Estimate(mats, []float64{1.5}, true, 4)
	require.ErrorIs(t, err, modelsize.ErrInvalidSparsity)

	_, err = modelsize.Estimate(mats, []float64{1}, true, 0)
	require.ErrorIs(t, err, modelsize.ErrInvalidBytes)

	_, err = modelsize.Estimate([]matrix.Matrix{nil}, []float64{1}, false, 4)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
