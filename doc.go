// Package protonn trains and evaluates ProtoNN, a compact prototype-based
// classifier for resource-constrained devices, with iterative hard
// thresholding (IHT).
//
// 🚀 What is ProtoNN?
//
//	A k-NN style model with three small matrices:
//		• W (D×d): sparse projection of the input into a low-dimensional space
//		• B (d×m): m prototypes living in the projected space
//		• Z (L×m): a label vector per prototype
//
//	score(x) = Σ_j exp(-γ²‖Wᵀx − b_j‖²) · z_j,  prediction = argmax score(x)
//
// ✨ What is in the module?
//
//   - Sparse by construction: every optimizer step is followed by a
//     hard-threshold projection to the requested fraction of non-zeros.
//   - Deterministic: every random draw comes from a seeded, named stream.
//   - Pure Go on gonum for the numeric kernels, zerolog for progress logs.
//
// Packages:
//
//	matrix/     — row-major Dense matrices, validators, linear algebra kernels
//	rng/        — seed policy and derived random streams
//	sparsity/   — hard-threshold projection
//	gamma/      — median heuristic for γ, seeds W and B with k-means
//	model/      — ProtoNN parameters, forward pass, predictions, accuracy
//	trainer/    — losses, hand-written gradients, Adam, the IHT loop
//	modelsize/  — expected and actual sparse model size
//	dataset/    — .npy/.csv loading, standardization, one-hot, synthetic blobs
//	cmd/protonn — command-line driver
//
// Quick example:
//
//	ds, _ := dataset.Blobs(dataset.DefaultBlobOptions())
//	est, _ := gamma.MedianHeuristic(ds.Train.X, 5, 8, gamma.DefaultOptions())
//	m, _ := model.New(model.Config{DataDim: ds.DataDim, ProjectionDim: 5,
//		NumPrototypes: 8, NumClasses: ds.NumClasses, Gamma: est.Gamma},
//		model.SeededInit{W: est.W, B: est.B})
//	tr, _ := trainer.New(m, trainer.DefaultOptions())
//	_, _ = tr.Train(16, 50, ds.Train.X, ds.Test.X, ds.Train.Y, ds.Test.Y, 0)
//
//	go install github.com/katalvlaran/protonn/cmd/protonn@latest
package protonn
