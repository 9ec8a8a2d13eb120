package trainer_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/protonn/dataset"
	"github.com/katalvlaran/protonn/gamma"
	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/model"
	"github.com/katalvlaran/protonn/modelsize"
	"github.com/katalvlaran/protonn/sparsity"
	"github.com/katalvlaran/protonn/trainer"
)

// blobModel prepares the 4-class, 10-feature synthetic problem with a model
// seeded by the median heuristic (d=5, m=8).
func blobModel(t *testing.T) (*dataset.Dataset, *model.ProtoNN) {
	t.Helper()
	opts := dataset.DefaultBlobOptions()
	opts.Seed = 2024
	ds, err := dataset.Blobs(opts)
	require.NoError(t, err)

	gopts := gamma.DefaultOptions()
	gopts.Seed = 7
	est, err := gamma.MedianHeuristic(ds.Train.X, 5, 8, gopts)
	require.NoError(t, err)

	cfg := model.Config{
		DataDim:       ds.DataDim,
		ProjectionDim: 5,
		NumPrototypes: 8,
		NumClasses:    ds.NumClasses,
		Gamma:         est.Gamma,
	}
	m, err := model.New(cfg, model.SeededInit{W: est.W, B: est.B, Seed: 7})
	require.NoError(t, err)
	return ds, m
}

func snapshot(m *model.ProtoNN) [3][]float64 {
	w, b, z, _ := m.Matrices()
	return [3][]float64{w.RawData(), b.RawData(), z.RawData()}
}

func TestNew_Validation(t *testing.T) {
	_, m := blobModel(t)

	_, err := trainer.New(nil, trainer.DefaultOptions())
	require.ErrorIs(t, err, trainer.ErrNilModel)

	for name, tc := range map[string]struct {
		mutate func(*trainer.Options)
		want   error
	}{
		"loss":     {func(o *trainer.Options) { o.LossType = "hinge" }, trainer.ErrInvalidLossType},
		"regW":     {func(o *trainer.Options) { o.RegW = -1 }, trainer.ErrInvalidParameter},
		"regZ nan": {func(o *trainer.Options) { o.RegZ = math.NaN() }, trainer.ErrInvalidParameter},
		"sW":       {func(o *trainer.Options) { o.SparsityW = 1.2 }, trainer.ErrInvalidParameter},
		"sB":       {func(o *trainer.Options) { o.SparsityB = -0.1 }, trainer.ErrInvalidParameter},
		"lr":       {func(o *trainer.Options) { o.LearningRate = 0 }, trainer.ErrInvalidParameter},
		"cadence":  {func(o *trainer.Options) { o.ProjectEvery = 7 }, trainer.ErrInvalidParameter},
		"validate": {func(o *trainer.Options) { o.ValidateEvery = -1 }, trainer.ErrInvalidParameter},
		"beta1":    {func(o *trainer.Options) { o.Beta1 = 1 }, trainer.ErrInvalidParameter},
	} {
		t.Run(name, func(t *testing.T) {
			opts := trainer.DefaultOptions()
			tc.mutate(&opts)
			_, err := trainer.New(m, opts)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseLossType(t *testing.T) {
	lt, err := trainer.ParseLossType("l2")
	require.NoError(t, err)
	assert.Equal(t, trainer.SquaredError, lt)

	_, err = trainer.ParseLossType("xent")
	require.ErrorIs(t, err, trainer.ErrInvalidLossType)
}

func TestTrain_PreconditionsLeaveModelUntouched(t *testing.T) {
	ds, m := blobModel(t)
	tr, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)
	before := snapshot(m)

	wrongY, err := matrix.NewDense(ds.Test.X.Rows(), ds.NumClasses+1)
	require.NoError(t, err)
	_, err = tr.Train(16, 3, ds.Train.X, ds.Test.X, ds.Train.Y, wrongY, 0)
	require.ErrorIs(t, err, model.ErrShapeMismatch)

	wrongX, err := matrix.NewDense(ds.Train.X.Rows(), ds.DataDim+2)
	require.NoError(t, err)
	_, err = tr.Train(16, 3, wrongX, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = tr.Train(0, 3, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.ErrorIs(t, err, trainer.ErrInvalidParameter)
	_, err = tr.Train(16, -1, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.ErrorIs(t, err, trainer.ErrInvalidParameter)
	_, err = tr.Train(ds.Train.X.Rows()+1, 1, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.ErrorIs(t, err, trainer.ErrInvalidParameter)

	assert.Equal(t, before, snapshot(m))
}

func TestTrain_ZeroEpochs(t *testing.T) {
	ds, m := blobModel(t)
	tr, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)
	before := snapshot(m)

	hist, err := tr.Train(16, 0, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.NoError(t, err)
	assert.Empty(t, hist.Epochs)
	assert.Equal(t, trainer.EpochStats{}, hist.Last())
	assert.Equal(t, before, snapshot(m))
}

func TestTrain_LossDecreases(t *testing.T) {
	ds, m := blobModel(t)
	opts := trainer.DefaultOptions()
	opts.LearningRate = 0.05
	tr, err := trainer.New(m, opts)
	require.NoError(t, err)

	hist, err := tr.Train(16, 10, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 10)
	for i, e := range hist.Epochs {
		assert.Equal(t, i, e.Epoch)
		assert.True(t, e.Validated)
		assert.False(t, math.IsNaN(e.MeanLoss))
	}
	assert.Less(t, hist.Last().MeanLoss, hist.Epochs[0].MeanLoss)
}

// TestTrain_EndToEnd trains on separable blobs and expects > 90% test accuracy.
func TestTrain_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end training")
	}
	ds, m := blobModel(t)
	opts := trainer.DefaultOptions()
	opts.LearningRate = 0.05
	tr, err := trainer.New(m, opts)
	require.NoError(t, err)

	hist, err := tr.Train(16, 50, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 50)

	acc, err := m.Accuracy(ds.Test.X, ds.Test.Y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)
	assert.Equal(t, acc, hist.Last().ValAccuracy)
}

// TestTrain_FixedGammaScenario trains from a random start with a fixed,
// small γ (0.01), learning rate 0.1 and 50 epochs, then checks accuracy and
// the dense size report.
func TestTrain_FixedGammaScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end training")
	}
	ds, err := dataset.Blobs(dataset.DefaultBlobOptions())
	require.NoError(t, err)
	require.Equal(t, 10, ds.DataDim)
	require.Equal(t, 4, ds.NumClasses)

	cfg := model.Config{DataDim: ds.DataDim, ProjectionDim: 5, NumPrototypes: 8, NumClasses: ds.NumClasses, Gamma: 0.01}
	m, err := model.New(cfg, model.RandomInit{Seed: 1})
	require.NoError(t, err)
	opts := trainer.DefaultOptions()
	opts.LearningRate = 0.1
	tr, err := trainer.New(m, opts)
	require.NoError(t, err)

	_, err = tr.Train(16, 50, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 200)
	require.NoError(t, err)
	acc, err := m.Accuracy(ds.Test.X, ds.Test.Y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)

	w, b, z, _ := m.Matrices()
	rep, err := modelsize.Expected([]matrix.Matrix{w, b, z}, []float64{1, 1, 1}, modelsize.DefaultBytesPerVar)
	require.NoError(t, err)
	assert.Equal(t, cfg.NumParams(), rep.NonZeros)
	assert.Equal(t, cfg.NumParams()*modelsize.DefaultBytesPerVar, rep.Bytes)
}

func TestTrain_SparsityEnforced(t *testing.T) {
	for _, cadence := range []trainer.ProjectCadence{trainer.PerBatch, trainer.PerEpoch} {
		ds, m := blobModel(t)
		opts := trainer.DefaultOptions()
		opts.SparsityW, opts.SparsityB, opts.SparsityZ = 0.3, 0.5, 0.8
		opts.LearningRate = 0.05
		opts.ProjectEvery = cadence
		opts.Shuffle = true
		opts.Seed = 5
		tr, err := trainer.New(m, opts)
		require.NoError(t, err)

		_, err = tr.Train(16, 5, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
		require.NoError(t, err)

		w, b, z := m.Params()
		for _, c := range []struct {
			m *matrix.Dense
			s float64
		}{{w, 0.3}, {b, 0.5}, {z, 0.8}} {
			nnz, err := matrix.CountNonZero(c.m)
			require.NoError(t, err)
			assert.LessOrEqual(t, nnz, sparsity.Keep(c.m.Len(), c.s))
		}
	}
}

func TestTrain_ShuffleIsDeterministic(t *testing.T) {
	run := func() [3][]float64 {
		ds, m := blobModel(t)
		opts := trainer.DefaultOptions()
		opts.Shuffle = true
		opts.Seed = 99
		tr, err := trainer.New(m, opts)
		require.NoError(t, err)
		_, err = tr.Train(32, 3, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
		require.NoError(t, err)
		return snapshot(m)
	}
	assert.Equal(t, run(), run())
}

func TestTrain_LogsProgress(t *testing.T) {
	ds, m := blobModel(t)
	var buf bytes.Buffer
	opts := trainer.DefaultOptions()
	opts.Logger = zerolog.New(&buf)
	tr, err := trainer.New(m, opts)
	require.NoError(t, err)

	// 400 rows / 100 = 4 batches; printStep 2 logs batches 0 and 2.
	_, err = tr.Train(100, 1, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("training progress")))
	assert.Contains(t, buf.String(), `"test_accuracy"`)
}

func TestTrain_ValidateEvery(t *testing.T) {
	ds, m := blobModel(t)
	opts := trainer.DefaultOptions()
	opts.ValidateEvery = 2
	tr, err := trainer.New(m, opts)
	require.NoError(t, err)

	hist, err := tr.Train(100, 4, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
	require.NoError(t, err)
	var validated []bool
	for _, e := range hist.Epochs {
		validated = append(validated, e.Validated)
	}
	assert.Equal(t, []bool{false, true, false, true}, validated)
}

func TestStep_ReturnsPreUpdateLoss(t *testing.T) {
	ds, m := blobModel(t)
	tr, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)

	x, err := ds.Train.X.SliceRows(0, 16)
	require.NoError(t, err)
	y, err := ds.Train.Y.SliceRows(0, 16)
	require.NoError(t, err)

	want, err := tr.Loss(x, y)
	require.NoError(t, err)
	got, err := tr.Step(x, y)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	after, err := tr.Loss(x, y)
	require.NoError(t, err)
	assert.NotEqual(t, want, after)
}
