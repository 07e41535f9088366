package analysis

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// KNNAffinity builds a k-nearest-neighbor affinity matrix from a distance
// matrix: an edge of weight 1 to each of the k nearest neighbors (self
// excluded), then symmetrized as (A + Aᵀ) / 2. When fewer than k+1 points
// exist, every other point is a neighbor.
func KNNAffinity(dist *mat.SymDense, k int) *mat.SymDense {
	n, _ := dist.Dims()
	if k > n-1 {
		k = n - 1
	}
	directed := mat.NewDense(n, n, nil)
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		for j := range idx {
			idx[j] = j
		}
		row := i
		sort.Slice(idx, func(a, b int) bool {
			return dist.At(row, idx[a]) < dist.At(row, idx[b])
		})
		// idx[0] is the point itself (distance 0).
		count := 0
		for _, j := range idx {
			if j == i {
				continue
			}
			directed.Set(i, j, 1)
			count++
			if count == k {
				break
			}
		}
	}
	aff := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			aff.SetSym(i, j, (directed.At(i, j)+directed.At(j, i))/2)
		}
	}
	return aff
}
