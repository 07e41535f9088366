package analysis

import (
	"errors"
	"fmt"
)

// Config tunes one pipeline run.
type Config struct {
	Neighbors     int   // k of the k-NN affinity graph
	EmbeddingDims int   // eigenvectors kept in the spectral embedding
	ClustersMin   int   // smallest k-means k
	ClustersMax   int   // largest k-means k (inclusive)
	Seed          int64 // k-means seeding
}

// CategoryResult is the analysis of one category: the spectral embedding of
// its attributions plus one k-means clustering per k.
type CategoryResult struct {
	Category    string
	Indices     []int
	EigenValues []float64
	Embedding   [][]float64
	Clusterings map[string][]int32
}

// ClusteringName formats the canonical name of a k-means clustering.
func ClusteringName(k int) string {
	return fmt.Sprintf("kmeans-%02d", k)
}

// Run executes the pipeline for one category. rows holds one flattened
// attribution per sample, aligned with indices.
func Run(cfg Config, category string, indices []int, rows [][]float64) (*CategoryResult, error) {
	if len(rows) != len(indices) {
		return nil, errors.New("attribution rows and indices length mismatch")
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("category %q has %d attributions, need at least 2", category, len(rows))
	}

	dist := Pairwise(rows)
	aff := KNNAffinity(dist, cfg.Neighbors)
	lap := SymmetricNormalLaplacian(aff)
	emb, err := Eigen(lap, cfg.EmbeddingDims)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", category, err)
	}

	result := &CategoryResult{
		Category:    category,
		Indices:     indices,
		EigenValues: emb.EigenValues,
		Embedding:   emb.Vectors,
		Clusterings: make(map[string][]int32),
	}
	for k := cfg.ClustersMin; k <= cfg.ClustersMax; k++ {
		if k > len(rows) {
			break
		}
		result.Clusterings[ClusteringName(k)] = KMeans(emb.Vectors, k, cfg.Seed)
	}
	return result, nil
}
