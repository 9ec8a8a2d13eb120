package trainer

import (
	"fmt"

	"github.com/katalvlaran/protonn/matrix"
	"github.com/katalvlaran/protonn/model"
	"github.com/katalvlaran/protonn/rng"
	"github.com/katalvlaran/protonn/sparsity"
)

// Trainer optimizes a model's W, B and Z with iterative hard thresholding:
// one unconstrained Adam step on the joint objective, then a hard-threshold
// projection of every parameter onto its sparsity budget.
//
// A Trainer owns the optimizer state (Adam moments, step count); calling
// Train twice continues from where the first call stopped. It is not safe
// for concurrent use.
type Trainer struct {
	m    *model.ProtoNN
	opts Options

	optW, optB, optZ *adam
	steps            int
}

// New validates opts and binds a trainer to m.
//
// Errors:
//   - ErrNilModel for a nil model.
//   - ErrInvalidLossType for an unknown LossType.
//   - ErrInvalidParameter for any other invalid option.
func New(m *model.ProtoNN, opts Options) (*Trainer, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	w, b, z := m.Params()
	return &Trainer{
		m:    m,
		opts: opts,
		optW: newAdam(w),
		optB: newAdam(b),
		optZ: newAdam(z),
	}, nil
}

// Options returns the options the trainer was built with.
func (t *Trainer) Options() Options { return t.opts }

// Model returns the model being trained.
func (t *Trainer) Model() *model.ProtoNN { return t.m }

// Train runs exactly numEpochs epochs over trainX/trainY.
//
// Batching:
//
//	Each epoch is split into ⌊n/batchSize⌋ mini-batches; the incomplete
//	trailing batch is dropped. Without Options.Shuffle the batches are the
//	sequential row slices [k·batchSize, (k+1)·batchSize).
//
// Per batch:
//  1. loss and gradients on the batch,
//  2. one Adam step on W, B and Z,
//  3. hard thresholding of W, B, Z at SparsityW/B/Z (PerBatch cadence).
//
// With the PerEpoch cadence step 3 runs once after the last batch.
//
// Observability:
//
//	Every printStep batches (printStep ≤ 0 disables) the batch loss and the
//	test accuracy are logged. Every ValidateEvery epochs the test accuracy is
//	recorded in the returned History.
//
// Errors:
//   - model.ErrShapeMismatch when the splits disagree with the model's D/L.
//   - ErrInvalidParameter for batchSize ≤ 0, numEpochs < 0 or n < batchSize.
//   - ErrNonFinite when the objective diverges; the offending step is not applied.
//
// All shape and parameter checks run before the first update, so a failed
// precondition leaves the model untouched.
func (t *Trainer) Train(batchSize, numEpochs int, trainX, testX, trainY, testY matrix.Matrix, printStep int) (History, error) {
	var hist History

	// Stage 1: validate everything up front.
	if batchSize <= 0 {
		return hist, fmt.Errorf("%w: batchSize=%d", ErrInvalidParameter, batchSize)
	}
	if numEpochs < 0 {
		return hist, fmt.Errorf("%w: numEpochs=%d", ErrInvalidParameter, numEpochs)
	}
	if err := t.m.CheckBatch(trainX, trainY); err != nil {
		return hist, fmt.Errorf("train split: %w", err)
	}
	if err := t.m.CheckBatch(testX, testY); err != nil {
		return hist, fmt.Errorf("test split: %w", err)
	}
	n := trainX.Rows()
	if n < batchSize {
		return hist, fmt.Errorf("%w: %d training rows for batchSize=%d", ErrInvalidParameter, n, batchSize)
	}
	xd, err := matrix.AsDense(trainX)
	if err != nil {
		return hist, err
	}
	yd, err := matrix.AsDense(trainY)
	if err != nil {
		return hist, err
	}

	// Stage 2: epoch loop.
	numBatches := n / batchSize
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	shuffler := rng.Derive(t.opts.Seed, rng.StreamShuffle)
	log := t.opts.Logger

	hist.Epochs = make([]EpochStats, 0, numEpochs)
	for epoch := 0; epoch < numEpochs; epoch++ {
		if t.opts.Shuffle {
			rng.Shuffle(order, shuffler)
		}
		var lossSum float64
		for bi := 0; bi < numBatches; bi++ {
			bx, by, err := t.batch(xd, yd, order, bi*batchSize, batchSize)
			if err != nil {
				return hist, err
			}
			loss, err := t.Step(bx, by)
			if err != nil {
				return hist, fmt.Errorf("epoch %d batch %d: %w", epoch, bi, err)
			}
			lossSum += loss

			if printStep > 0 && bi%printStep == 0 {
				acc, err := t.m.Accuracy(testX, testY)
				if err != nil {
					return hist, err
				}
				log.Info().
					Int("epoch", epoch).
					Int("batch", bi).
					Float64("loss", loss).
					Float64("test_accuracy", acc).
					Msg("protonn: training progress")
			}
		}
		if t.opts.ProjectEvery == PerEpoch {
			if err = t.project(); err != nil {
				return hist, err
			}
		}

		stats := EpochStats{Epoch: epoch, MeanLoss: lossSum / float64(numBatches)}
		if t.opts.ValidateEvery > 0 && (epoch+1)%t.opts.ValidateEvery == 0 {
			if stats.ValAccuracy, err = t.m.Accuracy(testX, testY); err != nil {
				return hist, err
			}
			stats.Validated = true
			log.Debug().
				Int("epoch", epoch).
				Float64("mean_loss", stats.MeanLoss).
				Float64("test_accuracy", stats.ValAccuracy).
				Msg("protonn: epoch done")
		}
		hist.Epochs = append(hist.Epochs, stats)
	}

	return hist, nil
}

// Step performs one IHT step on a single batch and returns the objective
// measured before the update. With the PerEpoch cadence the projection is
// left to Train.
func (t *Trainer) Step(x, y matrix.Matrix) (float64, error) {
	loss, g, err := t.lossAndGrad(x, y)
	if err != nil {
		return loss, err
	}
	w, b, z := t.m.Params()
	t.steps++
	t.optW.step(w, g.W, t.steps, t.opts)
	t.optB.step(b, g.B, t.steps, t.opts)
	t.optZ.step(z, g.Z, t.steps, t.opts)

	if t.opts.ProjectEvery == PerBatch {
		if err = t.project(); err != nil {
			return loss, err
		}
	}
	return loss, nil
}

// project hard-thresholds W, B and Z in place.
func (t *Trainer) project() error {
	w, b, z := t.m.Params()
	if err := sparsity.HardThresholdInPlace(w, t.opts.SparsityW); err != nil {
		return err
	}
	if err := sparsity.HardThresholdInPlace(b, t.opts.SparsityB); err != nil {
		return err
	}
	return sparsity.HardThresholdInPlace(z, t.opts.SparsityZ)
}

// batch extracts rows order[start:start+size] of x and y.
func (t *Trainer) batch(x, y *matrix.Dense, order []int, start, size int) (*matrix.Dense, *matrix.Dense, error) {
	if !t.opts.Shuffle {
		bx, err := x.SliceRows(start, start+size)
		if err != nil {
			return nil, nil, err
		}
		by, err := y.SliceRows(start, start+size)
		if err != nil {
			return nil, nil, err
		}
		return bx, by, nil
	}
	idx := order[start : start+size]
	bx, err := x.SelectRows(idx)
	if err != nil {
		return nil, nil, err
	}
	by, err := y.SelectRows(idx)
	if err != nil {
		return nil, nil, err
	}
	return bx, by, nil
}
