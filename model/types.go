package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/rng"
)

// Sentinel errors returned by the model.
var (
	// ErrShapeMismatch indicates that an input batch, a label batch or a
	// seeded parameter matrix disagrees with the configured D, d, m or L.
	ErrShapeMismatch = errors.New("model: shape mismatch")

	// ErrInvalidParameter indicates a non-positive dimension or an invalid gamma.
	ErrInvalidParameter = errors.New("model: invalid parameter")

	// ErrNilInit indicates that New was called without an initializer.
	ErrNilInit = errors.New("model: initializer is nil")
)

// Config fixes the shapes and the kernel width of a ProtoNN model.
//
//   - DataDim       — D, number of input features.
//   - ProjectionDim — d, width of the low-dimensional projection.
//   - NumPrototypes — m, number of prototypes.
//   - NumClasses    — L, number of labels.
//   - Gamma         — RBF width; similarity is exp(-γ²‖Wx − b‖²).
//
// W is D×d, B is d×m, Z is L×m.
type Config struct {
	DataDim       int
	ProjectionDim int
	NumPrototypes int
	NumClasses    int
	Gamma         float64
}

// Validate checks every dimension is positive and gamma is positive and finite.
func (c Config) Validate() error {
	switch {
	case c.DataDim <= 0:
		return fmt.Errorf("%w: DataDim=%d", ErrInvalidParameter, c.DataDim)
	case c.ProjectionDim <= 0:
		return fmt.Errorf("%w: ProjectionDim=%d", ErrInvalidParameter, c.ProjectionDim)
	case c.NumPrototypes <= 0:
		return fmt.Errorf("%w: NumPrototypes=%d", ErrInvalidParameter, c.NumPrototypes)
	case c.NumClasses <= 0:
		return fmt.Errorf("%w: NumClasses=%d", ErrInvalidParameter, c.NumClasses)
	case math.IsNaN(c.Gamma) || math.IsInf(c.Gamma, 0) || c.Gamma <= 0:
		return fmt.Errorf("%w: Gamma=%v", ErrInvalidParameter, c.Gamma)
	}
	return nil
}

// NumParams returns D·d + d·m + L·m, the dense parameter count.
func (c Config) NumParams() int {
	return c.DataDim*c.ProjectionDim + c.ProjectionDim*c.NumPrototypes + c.NumClasses*c.NumPrototypes
}

// Init builds the initial W, B and Z for a Config.
// The two shipped variants are RandomInit and SeededInit.
type Init interface {
	build(cfg Config) (w, b, z *matrix.Dense, err error)
}

// RandomInit draws W, B and Z from N(0,1).
// Seed follows the rng package policy (0 ⇒ rng.DefaultSeed).
type RandomInit struct {
	Seed int64
}

// SeededInit takes W and B from the caller (typically the gamma estimator)
// and draws only Z from N(0,1). W and B are copied; the caller keeps ownership
// of its matrices.
type SeededInit struct {
	W, B matrix.Matrix
	Seed int64
}

func (ri RandomInit) build(cfg Config) (w, b, z *matrix.Dense, err error) {
	if w, err = rng.Normal(cfg.DataDim, cfg.ProjectionDim, rng.Derive(ri.Seed, rng.StreamProjection)); err != nil {
		return nil, nil, nil, err
	}
	if b, err = rng.Normal(cfg.ProjectionDim, cfg.NumPrototypes, rng.Derive(ri.Seed, rng.StreamPrototypes)); err != nil {
		return nil, nil, nil, err
	}
	if z, err = labelInit(cfg, ri.Seed); err != nil {
		return nil, nil, nil, err
	}
	return w, b, z, nil
}

func (si SeededInit) build(cfg Config) (w, b, z *matrix.Dense, err error) {
	if err = matrix.ValidateShape(si.W, cfg.DataDim, cfg.ProjectionDim); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: W: %v", ErrShapeMismatch, err)
	}
	if err = matrix.ValidateShape(si.B, cfg.ProjectionDim, cfg.NumPrototypes); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: B: %v", ErrShapeMismatch, err)
	}
	if w, err = matrix.AsDense(si.W); err != nil {
		return nil, nil, nil, err
	}
	if b, err = matrix.AsDense(si.B); err != nil {
		return nil, nil, nil, err
	}
	if z, err = labelInit(cfg, si.Seed); err != nil {
		return nil, nil, nil, err
	}
	return w.CloneDense(), b.CloneDense(), z, nil
}

func labelInit(cfg Config, seed int64) (*matrix.Dense, error) {
	return rng.Normal(cfg.NumClasses, cfg.NumPrototypes, rng.Derive(seed, rng.StreamLabels))
}
