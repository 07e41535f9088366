package workspace

// Dataset port: read access to the model inputs of a project.
type Dataset interface {
	Name() string
	Len() int
	Sample(index int) (*Sample, error)
	Close() error
}

// AttributionSource port: read access to one attribution database.
type AttributionSource interface {
	Has(index int) bool
	// Indices lists every attribution index of the database, in storage
	// order.
	Indices() []int
	Attribution(index int) (*Attribution, error)
	Close() error
}

// AnalysisSource port: read access to one analysis database.
type AnalysisSource interface {
	Categories() ([]AnalysisCategory, error)
	ClusteringNames() ([]string, error)
	EmbeddingNames() ([]string, error)
	Has(category, clustering, embedding string) bool
	Analysis(category, clustering, embedding string) (*Analysis, error)
	Close() error
}
