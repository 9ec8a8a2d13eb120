package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/protonn/matrix"
)

// ProtoNN holds the projection W (D×d), the prototypes B (d×m), the
// prototype labels Z (L×m) and the kernel width gamma.
//
// Forward pass for a batch X (n×D):
//  1. P = X·W                         (n×d)
//  2. S[i,j] = exp(-γ²‖P_i − b_j‖²)   (n×m), b_j = column j of B
//  3. scores = S·Zᵀ                   (n×L)
//
// The model is a pure function of (W, B, Z, γ) and the batch; it keeps no
// state between calls. It is not safe for concurrent use while a Trainer
// mutates its parameters.
type ProtoNN struct {
	cfg     Config
	w, b, z *matrix.Dense
}

// New validates cfg, builds the parameters through init and returns the model.
//
// Errors:
//   - ErrInvalidParameter for an invalid Config.
//   - ErrNilInit when init is nil.
//   - ErrShapeMismatch when a SeededInit carries W/B of the wrong shape.
func New(cfg Config, init Init) (*ProtoNN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if init == nil {
		return nil, ErrNilInit
	}
	w, b, z, err := init.build(cfg)
	if err != nil {
		if errors.Is(err, ErrShapeMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("model: init: %w", err)
	}
	return &ProtoNN{cfg: cfg, w: w, b: b, z: z}, nil
}

// Config returns the configuration the model was built with.
func (p *ProtoNN) Config() Config { return p.cfg }

// Gamma returns the kernel width. It never changes after New.
func (p *ProtoNN) Gamma() float64 { return p.cfg.Gamma }

// Params returns the live W, B and Z. Writes are visible to the model;
// only the trainer is expected to use this.
func (p *ProtoNN) Params() (w, b, z *matrix.Dense) { return p.w, p.b, p.z }

// Matrices returns independent copies of W, B, Z and gamma.
func (p *ProtoNN) Matrices() (w, b, z *matrix.Dense, gamma float64) {
	return p.w.CloneDense(), p.b.CloneDense(), p.z.CloneDense(), p.cfg.Gamma
}

// Activations keeps every intermediate of a forward pass. The trainer reuses
// them for the backward pass.
type Activations struct {
	X         *matrix.Dense // n×D input batch
	Projected *matrix.Dense // n×d, P = X·W
	SqDist    *matrix.Dense // n×m, ‖P_i − b_j‖²
	Sim       *matrix.Dense // n×m, exp(-γ²·SqDist)
	Scores    *matrix.Dense // n×L, Sim·Zᵀ
}

// Forward runs the full forward pass on x.
//
// Errors:
//   - ErrShapeMismatch when x.Cols() != D.
//   - matrix.ErrNilMatrix for a nil batch.
//   - matrix.ErrNaNInf when a distance is NaN (diverged parameters).
func (p *ProtoNN) Forward(x matrix.Matrix) (*Activations, error) {
	if err := matrix.ValidateNotNil(x); err != nil {
		return nil, fmt.Errorf("model: Forward: %w", err)
	}
	if x.Cols() != p.cfg.DataDim {
		return nil, fmt.Errorf("%w: batch has %d features, model expects %d", ErrShapeMismatch, x.Cols(), p.cfg.DataDim)
	}
	xd, err := matrix.AsDense(x)
	if err != nil {
		return nil, fmt.Errorf("model: Forward: %w", err)
	}

	pm, err := matrix.Mul(xd, p.w)
	if err != nil {
		return nil, fmt.Errorf("model: Forward: %w", err)
	}
	proj := pm.(*matrix.Dense)

	n, d, m, l := xd.Rows(), p.cfg.ProjectionDim, p.cfg.NumPrototypes, p.cfg.NumClasses
	sqDist, _ := matrix.NewDense(n, m)
	scores, _ := matrix.NewDense(n, l)

	// Bᵀ puts every prototype in a contiguous row.
	bt, err := matrix.Transpose(p.b)
	if err != nil {
		return nil, fmt.Errorf("model: Forward: %w", err)
	}
	protos := bt.(*matrix.Dense)

	var i, j, k, c int
	var acc, diff float64
	for i = 0; i < n; i++ {
		pi := proj.Row(i)
		di := sqDist.Row(i)
		for j = 0; j < m; j++ {
			bj := protos.Row(j)
			acc = 0
			for k = 0; k < d; k++ {
				diff = pi[k] - bj[k]
				acc += diff * diff
			}
			di[j] = acc
		}
	}

	g2 := p.cfg.Gamma * p.cfg.Gamma
	sim := sqDist.CloneDense()
	if err = sim.Apply(func(_, _ int, v float64) float64 { return math.Exp(-g2 * v) }); err != nil {
		return nil, fmt.Errorf("model: Forward: %w", err)
	}

	for i = 0; i < n; i++ {
		si, yi := sim.Row(i), scores.Row(i)
		for c = 0; c < l; c++ {
			yi[c] = floats.Dot(si, p.z.Row(c))
		}
	}

	return &Activations{X: xd, Projected: proj, SqDist: sqDist, Sim: sim, Scores: scores}, nil
}

// Scores returns the n×L unnormalized class scores for x.
func (p *ProtoNN) Scores(x matrix.Matrix) (*matrix.Dense, error) {
	act, err := p.Forward(x)
	if err != nil {
		return nil, err
	}
	return act.Scores, nil
}

// Predict returns the arg-max class index per row (lowest index on ties).
func (p *ProtoNN) Predict(x matrix.Matrix) ([]int, error) {
	scores, err := p.Scores(x)
	if err != nil {
		return nil, err
	}
	return matrix.ArgMaxRows(scores)
}

// Accuracy returns the fraction of rows of x whose predicted class equals
// the arg-max of the matching row of y (one-hot labels). It is computed over
// this batch only; nothing is accumulated across calls.
//
// Errors:
//   - ErrShapeMismatch when y is not n×L for an n-row x, or x.Cols() != D.
func (p *ProtoNN) Accuracy(x, y matrix.Matrix) (float64, error) {
	if err := p.CheckBatch(x, y); err != nil {
		return 0, err
	}
	pred, err := p.Predict(x)
	if err != nil {
		return 0, err
	}
	return AccuracyOf(pred, y)
}

// CheckBatch validates that x is n×D and y is n×L.
func (p *ProtoNN) CheckBatch(x, y matrix.Matrix) error {
	if err := matrix.ValidateNotNil(x); err != nil {
		return fmt.Errorf("model: x: %w", err)
	}
	if err := matrix.ValidateNotNil(y); err != nil {
		return fmt.Errorf("model: y: %w", err)
	}
	if x.Cols() != p.cfg.DataDim {
		return fmt.Errorf("%w: x has %d columns, want %d", ErrShapeMismatch, x.Cols(), p.cfg.DataDim)
	}
	if y.Cols() != p.cfg.NumClasses {
		return fmt.Errorf("%w: y has %d columns, want %d", ErrShapeMismatch, y.Cols(), p.cfg.NumClasses)
	}
	if x.Rows() != y.Rows() {
		return fmt.Errorf("%w: x has %d rows, y has %d", ErrShapeMismatch, x.Rows(), y.Rows())
	}
	return nil
}

// AccuracyOf compares predicted class indices with the arg-max of each row of
// the one-hot matrix y.
func AccuracyOf(pred []int, y matrix.Matrix) (float64, error) {
	truth, err := matrix.ArgMaxRows(y)
	if err != nil {
		return 0, err
	}
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("%w: %d predictions for %d labels", ErrShapeMismatch, len(pred), len(truth))
	}
	if len(pred) == 0 {
		return 0, nil
	}
	var hits int
	for i := range pred {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(pred)), nil
}
