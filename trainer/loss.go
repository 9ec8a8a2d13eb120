package trainer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/protonn/matrix"
)

// Grads holds ∂loss/∂W, ∂loss/∂B and ∂loss/∂Z, shaped like the parameters.
type Grads struct {
	W, B, Z *matrix.Dense
}

// Loss evaluates the full objective (data term plus L2 penalties) on a batch.
//
// Errors:
//   - model.ErrShapeMismatch when x is not n×D or y is not n×L.
func (t *Trainer) Loss(x, y matrix.Matrix) (float64, error) {
	if err := t.m.CheckBatch(x, y); err != nil {
		return 0, err
	}
	act, err := t.m.Forward(x)
	if err != nil {
		return 0, err
	}
	yd, err := matrix.AsDense(y)
	if err != nil {
		return 0, err
	}
	data, _, err := dataTerm(t.opts.LossType, act.Scores, yd)
	if err != nil {
		return 0, err
	}
	reg, err := t.penalty()
	if err != nil {
		return 0, err
	}
	return data + reg, nil
}

// Gradients returns the gradient of the objective on a batch without
// touching the model.
func (t *Trainer) Gradients(x, y matrix.Matrix) (Grads, error) {
	_, g, err := t.lossAndGrad(x, y)
	return g, err
}

// penalty returns rW‖W‖² + rB‖B‖² + rZ‖Z‖² (squared Frobenius norms).
func (t *Trainer) penalty() (float64, error) {
	w, b, z := t.m.Params()
	var total float64
	for _, p := range []struct {
		r float64
		m *matrix.Dense
	}{{t.opts.RegW, w}, {t.opts.RegB, b}, {t.opts.RegZ, z}} {
		if p.r == 0 {
			continue
		}
		sq, err := matrix.FrobeniusSq(p.m)
		if err != nil {
			return 0, err
		}
		total += p.r * sq
	}
	return total, nil
}

// dataTerm returns the loss and ∂loss/∂scores for the selected loss type.
//
//   - CrossEntropy: (1/n) Σ_i −Σ_c y_ic·log softmax(s_i)_c
//     ∂/∂s_ic = (softmax(s_i)_c·Σ_c' y_ic' − y_ic) / n
//   - SquaredError: (1/(n·L)) Σ_ic (s_ic − y_ic)²
//     ∂/∂s_ic = 2(s_ic − y_ic) / (n·L)
func dataTerm(lt LossType, scores, y *matrix.Dense) (float64, *matrix.Dense, error) {
	n, l := scores.Rows(), scores.Cols()

	if lt == SquaredError {
		inv := 1 / float64(n*l)
		resid, err := matrix.Sub(scores, y)
		if err != nil {
			return 0, nil, err
		}
		sq, err := matrix.FrobeniusSq(resid)
		if err != nil {
			return 0, nil, err
		}
		grad, err := matrix.Scale(resid, 2*inv)
		if err != nil {
			return 0, nil, err
		}
		return sq * inv, grad.(*matrix.Dense), nil
	}

	// CrossEntropy
	grad, err := matrix.ZerosLike(scores)
	if err != nil {
		return 0, nil, err
	}
	var loss float64
	inv := 1 / float64(n)
	for i := 0; i < n; i++ {
		si, yi, gi := scores.Row(i), y.Row(i), grad.Row(i)
		mx := floats.Max(si)
		var z float64
		for c := 0; c < l; c++ {
			gi[c] = math.Exp(si[c] - mx)
			z += gi[c]
		}
		logZ := mx + math.Log(z)
		mass := floats.Sum(yi)
		for c := 0; c < l; c++ {
			loss -= yi[c] * (si[c] - logZ)
			gi[c] = (gi[c]/z*mass - yi[c]) * inv
		}
	}
	return loss * inv, grad, nil
}

// lossAndGrad runs forward and backward passes on one batch.
//
// Backward pass (n rows, γ fixed):
//
//	dZ[c,j] = Σ_i dY[i,c]·S[i,j]
//	dS[i,j] = Σ_c dY[i,c]·Z[c,j]
//	dD[i,j] = −γ²·S[i,j]·dS[i,j]
//	dP[i,k] = Σ_j 2·dD[i,j]·(P[i,k] − B[k,j])
//	dB[k,j] = −Σ_i 2·dD[i,j]·(P[i,k] − B[k,j])
//	dW = Xᵀ·dP
//
// plus 2·r·θ for every regularized parameter θ.
func (t *Trainer) lossAndGrad(x, y matrix.Matrix) (float64, Grads, error) {
	if err := t.m.CheckBatch(x, y); err != nil {
		return 0, Grads{}, err
	}
	act, err := t.m.Forward(x)
	if err != nil {
		return 0, Grads{}, err
	}
	yd, err := matrix.AsDense(y)
	if err != nil {
		return 0, Grads{}, err
	}
	cfg := t.m.Config()
	w, b, z := t.m.Params()
	n, d, m := act.X.Rows(), cfg.ProjectionDim, cfg.NumPrototypes
	g2 := cfg.Gamma * cfg.Gamma

	loss, dY, err := dataTerm(t.opts.LossType, act.Scores, yd)
	if err != nil {
		return 0, Grads{}, err
	}
	reg, err := t.penalty()
	if err != nil {
		return 0, Grads{}, err
	}
	loss += reg

	// dZ = dYᵀ·S, dS = dY·Z, dD = −γ²·(S ⊙ dS)
	dYt, err := matrix.Transpose(dY)
	if err != nil {
		return 0, Grads{}, err
	}
	dZm, err := matrix.Mul(dYt, act.Sim)
	if err != nil {
		return 0, Grads{}, err
	}
	dZ := dZm.(*matrix.Dense)
	dS, err := matrix.Mul(dY, z)
	if err != nil {
		return 0, Grads{}, err
	}
	sdS, err := matrix.Hadamard(act.Sim, dS)
	if err != nil {
		return 0, Grads{}, err
	}
	dDm, err := matrix.Scale(sdS, -g2)
	if err != nil {
		return 0, Grads{}, err
	}
	dD := dDm.(*matrix.Dense)

	// Through the squared distances into P and B.
	dB, err := matrix.ZerosLike(b)
	if err != nil {
		return 0, Grads{}, err
	}
	dP, err := matrix.NewDense(n, d)
	if err != nil {
		return 0, Grads{}, err
	}
	bd, dbd := b.RawData(), dB.RawData()
	var i, j, k int
	for i = 0; i < n; i++ {
		ddi, pi, dpi := dD.Row(i), act.Projected.Row(i), dP.Row(i)
		for j = 0; j < m; j++ {
			if ddi[j] == 0 {
				continue
			}
			for k = 0; k < d; k++ {
				diff := 2 * ddi[j] * (pi[k] - bd[k*m+j])
				dpi[k] += diff
				dbd[k*m+j] -= diff
			}
		}
	}

	xt, err := matrix.Transpose(act.X)
	if err != nil {
		return 0, Grads{}, err
	}
	dWm, err := matrix.Mul(xt, dP)
	if err != nil {
		return 0, Grads{}, err
	}
	dW := dWm.(*matrix.Dense)

	addPenaltyGrad(dW, w, t.opts.RegW)
	addPenaltyGrad(dB, b, t.opts.RegB)
	addPenaltyGrad(dZ, z, t.opts.RegZ)

	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, Grads{}, fmt.Errorf("%w: loss=%v", ErrNonFinite, loss)
	}
	for _, g := range []*matrix.Dense{dW, dB, dZ} {
		if err = matrix.ValidateFinite(g); err != nil {
			return loss, Grads{}, fmt.Errorf("%w: %v", ErrNonFinite, err)
		}
	}

	return loss, Grads{W: dW, B: dB, Z: dZ}, nil
}

// addPenaltyGrad adds 2·r·θ to g.
func addPenaltyGrad(g, theta *matrix.Dense, r float64) {
	if r == 0 {
		return
	}
	floats.AddScaled(g.RawData(), 2*r, theta.RawData())
}
