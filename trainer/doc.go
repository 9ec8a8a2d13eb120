// Package trainer fits a model.ProtoNN with iterative hard thresholding (IHT).
//
// Objective:
//
//	L(W,B,Z) = data(scores, Y) + rW‖W‖²_F + rB‖B‖²_F + rZ‖Z‖²_F
//
//	data = mean softmax cross-entropy ("xentropy") or
//	       mean squared error over all n·L entries ("l2").
//
// Algorithm (per mini-batch):
//
//	1. forward pass and hand-written backward pass,
//	2. Adam step on W, B and Z (β1=0.9, β2=0.999, ε=1e-8),
//	3. hard-threshold W, B, Z to their sparsity budgets.
//
// γ is a fixed hyper-parameter and is never trained.
//
// Usage:
//
//	opts := trainer.DefaultOptions()
//	opts.SparsityW, opts.LearningRate = 0.5, 0.05
//	opts.Logger = zerolog.New(os.Stderr)
//	tr, err := trainer.New(m, opts)
//	hist, err := tr.Train(16, 50, trainX, testX, trainY, testY, 200)
//
// Determinism:
//
//	Batches are sequential row slices unless Options.Shuffle is set, in
//	which case the order comes from rng.Derive(Options.Seed, rng.StreamShuffle).
//	Given the same model and options, training is bit-for-bit reproducible.
package trainer
