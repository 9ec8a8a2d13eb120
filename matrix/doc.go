// Package matrix offers the dense linear-algebra core used by ProtoNN.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set, a
//     NaN/Inf ingestion policy, and live-buffer access (RawData, Row) for
//     hot kernels.
//   - Kernels: Sub, Mul, Transpose, Scale, Hadamard.
//   - Reductions: FrobeniusSq, CountNonZero, ArgMaxRows.
//   - StandardizeColumns for feature z-scoring with a variance floor.
//   - Validators shared by every package (ValidateShape, ValidateMulCompatible, ...).
//
// All kernels allocate a fresh result and never mutate their operands.
// Errors are package sentinels (errors.go) wrapped with an operation tag;
// match them with errors.Is.
//
// See the examples in this package for usage patterns.
package matrix
