// Package rng centralizes random generation for ProtoNN initialization,
// gamma estimation, batch shuffling and synthetic data.
//
// Goals:
//   - Determinism: same seed ⇒ identical matrices and batches across platforms.
//   - Encapsulation: a single RNG factory; no time-based sources hidden anywhere.
//   - Safety: no panics or logging on user input.
//
// Seed policy:
//   - seed==0 ⇒ DefaultSeed (a fixed value), so an unset seed is still reproducible.
//   - Any other seed is used verbatim. Callers that want fresh randomness per
//     run pass a time-derived seed explicitly (the driver does this for -seed=-1).
//
// Concurrency:
//   - math/rand.Rand is NOT goroutine-safe. Do not share a *rand.Rand across goroutines.
//   - Use Derive to create independent streams (W init, Z init, k-means, shuffling).
package rng

import (
	"errors"
	"math/rand"

	"github.com/katalvlaran/protonn/matrix"
)

// DefaultSeed is the fixed “zero” seed used when callers pass seed==0.
// The value is arbitrary but stable to keep reproducible defaults.
const DefaultSeed int64 = 1

// Stream identifiers for Derive. Keeping them here makes every consumer draw
// from its own stream, so adding a draw in one place never shifts another.
const (
	StreamProjection uint64 = iota + 1
	StreamPrototypes
	StreamLabels
	StreamSubsample
	StreamKMeans
	StreamShuffle
	StreamSynthetic
)

// ErrNegativeSize is returned when a permutation or sample size is negative
// or a sample is larger than its population.
var ErrNegativeSize = errors.New("rng: invalid sample size")

// FromSeed returns a deterministic *rand.Rand.
// Policy: seed==0 ⇒ use DefaultSeed; otherwise use the provided seed verbatim.
//
// Complexity: O(1).
func FromSeed(seed int64) *rand.Rand {
	var s int64
	s = seed
	if s == 0 {
		s = DefaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// deriveSeed mixes a parent seed and a stream identifier into a new 64-bit seed.
// SplitMix64-style finalizer; small changes in inputs produce large,
// well-distributed output changes.
//
// Complexity: O(1).
func deriveSeed(parent int64, stream uint64) int64 {
	var x uint64
	x = uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// Derive creates an independent deterministic stream from a seed and a
// stream identifier. The seed follows the FromSeed policy.
//
// Complexity: O(1).
func Derive(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.New(rand.NewSource(deriveSeed(seed, stream)))
}

// Shuffle performs an in-place Fisher–Yates shuffle of a using r.
// If r==nil, a deterministic default stream is used (seed==0 policy).
//
// Complexity: O(n) time, O(1) extra space.
func Shuffle(a []int, r *rand.Rand) {
	n := len(a)
	if n <= 1 {
		return
	}
	if r == nil {
		r = FromSeed(0)
	}

	var i, j int
	for i = n - 1; i > 0; i-- {
		j = r.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// Perm returns a permutation of 0..n-1 generated deterministically from r.
// For n<0, returns ErrNegativeSize.
//
// Complexity: O(n) time, O(n) space.
func Perm(n int, r *rand.Rand) ([]int, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	Shuffle(p, r)
	return p, nil
}

// Sample draws k distinct indices from 0..n-1 (without replacement).
// The result order is the draw order.
//
// Complexity: O(n) time, O(n) space.
func Sample(n, k int, r *rand.Rand) ([]int, error) {
	if k < 0 || k > n {
		return nil, ErrNegativeSize
	}
	p, err := Perm(n, r)
	if err != nil {
		return nil, err
	}
	return p[:k], nil
}

// Normal returns a rows×cols matrix of independent N(0,1) draws, filled in
// row-major order.
//
// Errors: matrix.ErrInvalidDimensions.
// Complexity: O(rows*cols).
func Normal(rows, cols int, r *rand.Rand) (*matrix.Dense, error) {
	m, err := matrix.NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = FromSeed(0)
	}
	data := m.RawData()
	for i := range data {
		data[i] = r.NormFloat64()
	}
	return m, nil
}
