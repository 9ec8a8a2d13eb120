package trainer

import (
	"math"

	"github.com/katalvlaran/protonn/matrix"
)

// adam keeps the first and second moment estimates of one parameter matrix.
// The update follows Kingma & Ba with the bias correction folded into the
// step size:
//
//	m ← β1·m + (1−β1)·g
//	v ← β2·v + (1−β2)·g²
//	α_t = α·√(1−β2ᵗ)/(1−β1ᵗ)
//	θ ← θ − α_t·m/(√v + ε)
type adam struct {
	m, v []float64
}

func newAdam(theta *matrix.Dense) *adam {
	n := theta.Len()
	return &adam{m: make([]float64, n), v: make([]float64, n)}
}

// step applies one update to theta in place. t is the 1-based step count.
func (a *adam) step(theta, grad *matrix.Dense, t int, o Options) {
	lr := o.LearningRate * math.Sqrt(1-math.Pow(o.Beta2, float64(t))) / (1 - math.Pow(o.Beta1, float64(t)))
	th, g := theta.RawData(), grad.RawData()
	for i := range th {
		a.m[i] = o.Beta1*a.m[i] + (1-o.Beta1)*g[i]
		a.v[i] = o.Beta2*a.v[i] + (1-o.Beta2)*g[i]*g[i]
		th[i] -= lr * a.m[i] / (math.Sqrt(a.v[i]) + o.Epsilon)
	}
}
