package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpectralEmbedding is the eigen-decomposition of the normalized affinity
// matrix. Vectors holds one row per sample; eigenvalues are reported as
// 1 - λ (the spectrum of I - D^(-1/2) A D^(-1/2)), most significant
// component first.
type SpectralEmbedding struct {
	EigenValues []float64
	Vectors     [][]float64
}

// Eigen decomposes the normalized affinity matrix and keeps the dims
// components belonging to the largest eigenvalues of the matrix. Rows of the
// resulting embedding are L2-normalized.
func Eigen(lap *mat.SymDense, dims int) (*SpectralEmbedding, error) {
	n, _ := lap.Dims()
	if n == 0 {
		return nil, errors.New("empty affinity matrix")
	}
	if dims > n {
		dims = n
	}

	var eig mat.EigenSym
	if !eig.Factorize(lap, true) {
		return nil, errors.New("eigen decomposition did not converge")
	}
	vals := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	emb := &SpectralEmbedding{
		EigenValues: make([]float64, dims),
		Vectors:     make([][]float64, n),
	}
	for i := range emb.Vectors {
		emb.Vectors[i] = make([]float64, dims)
	}
	// Largest eigenvalue of the normalized affinity first.
	for d := 0; d < dims; d++ {
		col := n - 1 - d
		emb.EigenValues[d] = 1 - vals[col]
		for i := 0; i < n; i++ {
			emb.Vectors[i][d] = vecs.At(i, col)
		}
	}
	for _, row := range emb.Vectors {
		normalizeRow(row)
	}
	return emb, nil
}

func normalizeRow(row []float64) {
	var norm float64
	for _, v := range row {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range row {
		row[i] /= norm
	}
}
