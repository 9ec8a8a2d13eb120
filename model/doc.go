// Package model defines the ProtoNN classifier: a sparse linear projection
// W, a set of prototypes B living in the projected space, and a label matrix
// Z that maps every prototype to a (soft) class distribution.
//
// What is ProtoNN?
//
//	A compact k-NN style classifier for resource-constrained devices. An
//	input x is projected to Wᵀx, compared with every prototype through an
//	RBF kernel exp(-γ²‖Wᵀx − b_j‖²), and the similarities weight the
//	prototype labels: score(x) = Σ_j sim_j · z_j.
//
// Construction:
//
//	cfg := model.Config{DataDim: 10, ProjectionDim: 5, NumPrototypes: 8, NumClasses: 4, Gamma: 0.5}
//	m, err := model.New(cfg, model.RandomInit{Seed: 42})
//
//	// or seed W and B from the gamma estimator:
//	est, _ := gamma.MedianHeuristic(x, 5, 8, gamma.DefaultOptions())
//	cfg.Gamma = est.Gamma
//	m, err = model.New(cfg, model.SeededInit{W: est.W, B: est.B, Seed: 42})
//
// Errors (sentinel):
//
//	– ErrShapeMismatch     batch/labels/seeded matrices disagree with the Config.
//	– ErrInvalidParameter  non-positive dimension or gamma.
//	– ErrNilInit           no initializer supplied.
//
// Training lives in package trainer; the model itself never mutates its
// parameters.
package model
