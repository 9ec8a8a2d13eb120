package gamma

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/protonn/matrix"
)

// kmeans clusters the rows of p into k groups and returns the k×cols centers.
//
// Seeding is k-means++: the first center is a uniform row, every further
// center is drawn with probability proportional to its squared distance from
// the nearest chosen center. When every remaining distance is zero the draw
// falls back to a uniform row. Lloyd iterations then alternate assignment and
// mean updates until no assignment changes or iters is exhausted. A cluster
// that loses all of its rows keeps its previous center.
//
// Preconditions: p.Rows() ≥ k ≥ 1, iters ≥ 1.
func kmeans(p *matrix.Dense, k, iters int, r *rand.Rand) (*matrix.Dense, error) {
	n, d := p.Shape()
	centers, err := matrix.NewDense(k, d)
	if err != nil {
		return nil, err
	}

	// k-means++ seeding.
	copy(centers.Row(0), p.Row(r.Intn(n)))
	nearest := make([]float64, n)
	for i := range nearest {
		nearest[i] = sqDist(p.Row(i), centers.Row(0))
	}
	for c := 1; c < k; c++ {
		pick := r.Intn(n)
		if total := floats.Sum(nearest); total > 0 {
			target := r.Float64() * total
			var acc float64
			for i, v := range nearest {
				acc += v
				if acc >= target && v > 0 {
					pick = i
					break
				}
			}
		}
		copy(centers.Row(c), p.Row(pick))
		for i := range nearest {
			if dd := sqDist(p.Row(i), centers.Row(c)); dd < nearest[i] {
				nearest[i] = dd
			}
		}
	}

	// Lloyd iterations.
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	counts := make([]int, k)
	sums, err := matrix.NewDense(k, d)
	if err != nil {
		return nil, err
	}
	for it := 0; it < iters; it++ {
		changed := false
		for i := 0; i < n; i++ {
			best := closest(p.Row(i), centers)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sd := sums.RawData()
		for i := range sd {
			sd[i] = 0
		}
		for c := range counts {
			counts[c] = 0
		}
		for i := 0; i < n; i++ {
			floats.Add(sums.Row(assign[i]), p.Row(i))
			counts[assign[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			row := centers.Row(c)
			copy(row, sums.Row(c))
			floats.Scale(1/float64(counts[c]), row)
		}
	}

	return centers, nil
}

// closest returns the index of the center nearest to v; ties keep the lower index.
func closest(v []float64, centers *matrix.Dense) int {
	best, bestD := 0, sqDist(v, centers.Row(0))
	for c := 1; c < centers.Rows(); c++ {
		if dd := sqDist(v, centers.Row(c)); dd < bestD {
			best, bestD = c, dd
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	dd := floats.Distance(a, b, 2)
	return dd * dd
}
