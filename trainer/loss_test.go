package trainer_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/model"
	"github.com/katalvlaran/protonn/rng"
	"github.com/katalvlaran/protonn/trainer"
)

// smallProblem returns a 3-feature, 2-class model and a 6-row batch.
func smallProblem(t *testing.T) (*model.ProtoNN, *matrix.Dense, *matrix.Dense) {
	t.Helper()
	cfg := model.Config{DataDim: 3, ProjectionDim: 2, NumPrototypes: 3, NumClasses: 2, Gamma: 0.7}
	m, err := model.New(cfg, model.RandomInit{Seed: 3})
	require.NoError(t, err)

	x, err := rng.Normal(6, 3, rng.FromSeed(17))
	require.NoError(t, err)
	y, err := matrix.NewDenseFrom(6, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
		0, 1,
		0, 1,
		1, 0,
	})
	require.NoError(t, err)
	return m, x, y
}

// TestGradients_FiniteDifference compares the analytic gradient of every
// parameter entry with a central difference of the objective.
func TestGradients_FiniteDifference(t *testing.T) {
	for _, lt := range []trainer.LossType{trainer.CrossEntropy, trainer.SquaredError} {
		t.Run(string(lt), func(t *testing.T) {
			m, x, y := smallProblem(t)
			opts := trainer.DefaultOptions()
			opts.LossType = lt
			opts.RegW, opts.RegB, opts.RegZ = 0.01, 0.02, 0.03
			tr, err := trainer.New(m, opts)
			require.NoError(t, err)

			g, err := tr.Gradients(x, y)
			require.NoError(t, err)

			w, b, z := m.Params()
			const h = 1e-6
			for name, pair := range map[string][2]*matrix.Dense{
				"W": {w, g.W},
				"B": {b, g.B},
				"Z": {z, g.Z},
			} {
				theta, grad := pair[0].RawData(), pair[1].RawData()
				require.Len(t, grad, len(theta), name)
				for i := range theta {
					orig := theta[i]
					theta[i] = orig + h
					up, err := tr.Loss(x, y)
					require.NoError(t, err)
					theta[i] = orig - h
					down, err := tr.Loss(x, y)
					require.NoError(t, err)
					theta[i] = orig

					numeric := (up - down) / (2 * h)
					assert.InDelta(t, numeric, grad[i], 1e-5+1e-4*math.Abs(numeric), "%s[%d]", name, i)
				}
			}
		})
	}
}

func TestLoss_RegularizationAdds(t *testing.T) {
	m, x, y := smallProblem(t)

	plain, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)
	base, err := plain.Loss(x, y)
	require.NoError(t, err)

	opts := trainer.DefaultOptions()
	opts.RegZ = 0.5
	reg, err := trainer.New(m, opts)
	require.NoError(t, err)
	withReg, err := reg.Loss(x, y)
	require.NoError(t, err)

	_, _, z := m.Params()
	zz, err := matrix.FrobeniusSq(z)
	require.NoError(t, err)
	assert.InDelta(t, base+0.5*zz, withReg, 1e-12)
}

func TestLoss_CrossEntropyUniformScores(t *testing.T) {
	// Z = 0 gives all-zero scores: softmax is uniform and the loss is log(L).
	m, x, y := smallProblem(t)
	_, _, z := m.Params()
	for i := range z.RawData() {
		z.RawData()[i] = 0
	}
	tr, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)
	loss, err := tr.Loss(x, y)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), loss, 1e-12)

	opts := trainer.DefaultOptions()
	opts.LossType = trainer.SquaredError
	tr, err = trainer.New(m, opts)
	require.NoError(t, err)
	loss, err = tr.Loss(x, y)
	require.NoError(t, err)
	// one 1 per row over 2 columns
	assert.InDelta(t, 0.5, loss, 1e-12)
}

func TestLoss_ShapeMismatch(t *testing.T) {
	m, x, _ := smallProblem(t)
	tr, err := trainer.New(m, trainer.DefaultOptions())
	require.NoError(t, err)

	bad, err := matrix.NewDense(6, 3)
	require.NoError(t, err)
	_, err = tr.Loss(x, bad)
	require.ErrorIs(t, err, model.ErrShapeMismatch)
	_, err = tr.Gradients(x, bad)
	require.ErrorIs(t, err, model.ErrShapeMismatch)
}
