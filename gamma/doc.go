// Package gamma estimates the RBF width of a ProtoNN model with the median
// heuristic and returns the projection and prototypes it was computed with,
// so they can seed the model (model.SeededInit).
//
// Algorithm:
//
//	1. W ← N(0,1) of shape D×d, or Options.W when supplied.
//	2. Xs ← at most Options.MaxSamples rows of X, drawn without replacement.
//	3. P ← Xs·W; k-means on the rows of P with k = m; B ← centersᵀ (d×m).
//	4. median ← median of ‖P_i − c_j‖ over every row i and center j
//	   (an even count averages the two middle values).
//	5. γ ← 2.5 / median.
//
// If every distance is zero (all projected rows coincide) the heuristic is
// undefined and ErrDegenerateMedian is returned; there is no silent fallback.
//
// Determinism: every random draw comes from rng.Derive(Options.Seed, …), so a
// fixed seed reproduces W, B and γ exactly.
package gamma
