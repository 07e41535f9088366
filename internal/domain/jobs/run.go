package jobs

// Params tune the spectral analysis pipeline.
type Params struct {
	Neighbors     int // k of the k-nearest-neighbor affinity graph
	EmbeddingDims int // number of eigenvectors kept
	ClustersMin   int // smallest k-means k
	ClustersMax   int // largest k-means k
}

// DefaultParams mirror the defaults of the offline pipeline.
func DefaultParams() Params {
	return Params{Neighbors: 10, EmbeddingDims: 8, ClustersMin: 2, ClustersMax: 10}
}

// RunRequest for the Runner.
type RunRequest struct {
	Project  string // project name
	Method   string // analysis method name for the new database
	Category string // empty = every category found in the attributions
	Params   Params
}

// RunResult produced by the Runner.
type RunResult struct {
	LocalArtifactPath string
	Categories        int
	DurationMS        int64
}
