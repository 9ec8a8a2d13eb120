// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Single source of truth for tolerances used by comparisons and guards.
package matrix

// Numeric policy.
const (
	// DefaultEpsilon defines the non-negative tolerance used by AllClose callers
	// that do not carry their own tolerance.
	DefaultEpsilon = 1e-9

	// DefaultValidateNaNInf toggles strict finite-value validation on Set and Apply.
	// Raw-buffer writes (RawData) bypass the policy by contract.
	DefaultValidateNaNInf = true
)
