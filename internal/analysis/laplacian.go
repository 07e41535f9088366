package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SymmetricNormalLaplacian computes D^(-1/2) A D^(-1/2) for an affinity
// matrix A with degree matrix D. Isolated nodes (zero degree) keep zero rows.
func SymmetricNormalLaplacian(aff *mat.SymDense) *mat.SymDense {
	n, _ := aff.Dims()
	invSqrtDeg := make([]float64, n)
	for i := 0; i < n; i++ {
		var deg float64
		for j := 0; j < n; j++ {
			deg += aff.At(i, j)
		}
		if deg > 0 {
			invSqrtDeg[i] = 1 / math.Sqrt(deg)
		}
	}
	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			lap.SetSym(i, j, invSqrtDeg[i]*aff.At(i, j)*invSqrtDeg[j])
		}
	}
	return lap
}
