// Package analysis implements the spectral analysis pipeline that turns a
// set of attribution maps into embeddings and clusterings: pairwise
// distances, a sparse k-nearest-neighbor affinity graph, the symmetric
// normalized graph Laplacian, its eigen-decomposition, and k-means
// clusterings of the resulting embedding.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SquaredL2 is the squared Euclidean distance between two vectors. Vectors
// must be the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// Pairwise computes the symmetric Euclidean distance matrix of the given row
// vectors.
func Pairwise(rows [][]float64) *mat.SymDense {
	n := len(rows)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, math.Sqrt(SquaredL2(rows[i], rows[j])))
		}
	}
	return d
}
