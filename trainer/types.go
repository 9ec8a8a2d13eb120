package trainer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/protonn/sparsity"
)

// Sentinel errors returned by the trainer.
var (
	// ErrInvalidLossType indicates an unrecognized LossType.
	ErrInvalidLossType = errors.New("trainer: invalid loss type")

	// ErrInvalidParameter indicates a negative regularizer, a non-positive
	// learning rate, a bad batch size or epoch count.
	ErrInvalidParameter = errors.New("trainer: invalid parameter")

	// ErrNilModel indicates that New was called with a nil model.
	ErrNilModel = errors.New("trainer: model is nil")

	// ErrNonFinite indicates that a loss or gradient became NaN/Inf. The step
	// that produced it is not applied, so the model keeps its last valid state.
	ErrNonFinite = errors.New("trainer: non-finite loss or gradient")
)

// LossType selects the data term of the objective.
type LossType string

const (
	// CrossEntropy is the mean softmax cross-entropy between scores and labels.
	CrossEntropy LossType = "xentropy"

	// SquaredError is the mean squared error between scores and one-hot labels.
	SquaredError LossType = "l2"
)

// ParseLossType maps a textual selector onto a LossType.
func ParseLossType(s string) (LossType, error) {
	switch LossType(s) {
	case CrossEntropy, SquaredError:
		return LossType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLossType, s)
}

// ProjectCadence controls when the hard-threshold projection runs.
//
//   - PerBatch — after every optimizer step (IHT: step, project, repeat).
//   - PerEpoch — once at the end of every epoch.
type ProjectCadence int

const (
	// PerBatch projects W, B and Z right after every mini-batch step.
	PerBatch ProjectCadence = iota

	// PerEpoch projects W, B and Z once per epoch, after the last batch.
	PerEpoch
)

// Options configures a Trainer.
//
// Fields:
//   - RegW, RegB, RegZ        — L2 weights on ‖W‖², ‖B‖², ‖Z‖² (0 disables).
//   - SparsityW/B/Z           — fraction of entries kept by hard thresholding, in [0,1].
//   - LearningRate            — Adam step size, > 0.
//   - LossType                — CrossEntropy or SquaredError.
//   - ProjectEvery            — PerBatch (default) or PerEpoch.
//   - Shuffle                 — permute the training rows every epoch; false keeps
//     sequential slices.
//   - Seed                    — shuffle seed (rng policy: 0 ⇒ default seed).
//   - ValidateEvery           — record test accuracy every N epochs (0 disables).
//   - Beta1, Beta2, Epsilon   — Adam hyper-parameters.
//   - Logger                  — progress sink; zerolog.Nop() by default.
type Options struct {
	RegW, RegB, RegZ                float64
	SparsityW, SparsityB, SparsityZ float64
	LearningRate                    float64
	LossType                        LossType
	ProjectEvery                    ProjectCadence
	Shuffle                         bool
	Seed                            int64
	ValidateEvery                   int
	Beta1, Beta2, Epsilon           float64
	Logger                          zerolog.Logger
}

// DefaultOptions returns dense (sparsity 1), unregularized options with the
// learning rate 0.01, cross-entropy loss and Adam defaults.
//
// Defaults:
//   - RegW/RegB/RegZ:        0
//   - SparsityW/B/Z:         1
//   - LearningRate:          0.01
//   - LossType:              CrossEntropy
//   - ProjectEvery:          PerBatch
//   - Shuffle:               false
//   - ValidateEvery:         1
//   - Beta1, Beta2, Epsilon: 0.9, 0.999, 1e-8
//   - Logger:                zerolog.Nop()
func DefaultOptions() Options {
	return Options{
		SparsityW:     1,
		SparsityB:     1,
		SparsityZ:     1,
		LearningRate:  0.01,
		LossType:      CrossEntropy,
		ProjectEvery:  PerBatch,
		ValidateEvery: 1,
		Beta1:         0.9,
		Beta2:         0.999,
		Epsilon:       1e-8,
		Logger:        zerolog.Nop(),
	}
}

// Validate checks the options in a fixed order and returns the first violation.
func (o Options) Validate() error {
	if _, err := ParseLossType(string(o.LossType)); err != nil {
		return err
	}
	for _, r := range []struct {
		name string
		v    float64
	}{{"RegW", o.RegW}, {"RegB", o.RegB}, {"RegZ", o.RegZ}} {
		if math.IsNaN(r.v) || math.IsInf(r.v, 0) || r.v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidParameter, r.name, r.v)
		}
	}
	for _, s := range []struct {
		name string
		v    float64
	}{{"SparsityW", o.SparsityW}, {"SparsityB", o.SparsityB}, {"SparsityZ", o.SparsityZ}} {
		if err := sparsity.Validate(s.v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidParameter, s.name, err)
		}
	}
	if math.IsNaN(o.LearningRate) || math.IsInf(o.LearningRate, 0) || o.LearningRate <= 0 {
		return fmt.Errorf("%w: LearningRate=%v", ErrInvalidParameter, o.LearningRate)
	}
	if o.ProjectEvery != PerBatch && o.ProjectEvery != PerEpoch {
		return fmt.Errorf("%w: ProjectEvery=%d", ErrInvalidParameter, o.ProjectEvery)
	}
	if o.ValidateEvery < 0 {
		return fmt.Errorf("%w: ValidateEvery=%d", ErrInvalidParameter, o.ValidateEvery)
	}
	if o.Beta1 < 0 || o.Beta1 >= 1 || o.Beta2 < 0 || o.Beta2 >= 1 || o.Epsilon <= 0 {
		return fmt.Errorf("%w: Adam beta1=%v beta2=%v eps=%v", ErrInvalidParameter, o.Beta1, o.Beta2, o.Epsilon)
	}
	return nil
}

// EpochStats summarizes one epoch.
type EpochStats struct {
	Epoch       int     // zero-based epoch index
	MeanLoss    float64 // mean of the per-batch losses, measured before each step
	ValAccuracy float64 // test accuracy after the epoch; meaningful only when Validated
	Validated   bool    // whether ValAccuracy was computed this epoch
}

// History collects the per-epoch statistics of a Train call.
type History struct {
	Epochs []EpochStats
}

// Last returns the stats of the final epoch, or the zero value for an empty history.
func (h History) Last() EpochStats {
	if len(h.Epochs) == 0 {
		return EpochStats{}
	}
	return h.Epochs[len(h.Epochs)-1]
}
