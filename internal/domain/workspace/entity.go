package workspace

// Sample is a single dataset input. Data is in HWC order with pixel values
// already de-normalized to [0, 255].
type Sample struct {
	Index  int
	Labels []string
	Data   Tensor
}

// Attribution is the raw relevance map computed for one sample, together with
// the labels it was attributed against and the model's prediction vector.
type Attribution struct {
	Index int
	// LabelRef is the raw reference of the first label (WordNet ID or
	// stringified index); analyses group attributions by it.
	LabelRef   string
	Labels     []string
	Prediction []float32
	Data       Tensor
}

// AnalysisCategory names one subset of attributions an analysis was run on,
// usually a class label.
type AnalysisCategory struct {
	Name              string `json:"name"`
	HumanReadableName string `json:"humanReadableName"`
}

// Analysis is one embedding/clustering pair of an analysis run. Embeddings
// may be derived from another embedding (e.g. a t-SNE projection of a
// spectral embedding); such embeddings carry the base embedding's name and
// the indices of the base axes they project.
type Analysis struct {
	CategoryName              string
	HumanReadableCategoryName string
	ClusteringName            string
	Clustering                []int32
	EmbeddingName             string
	Embedding                 [][]float32
	AttributionIndices        []int
	EigenValues               []float32 // nil when the embedding has none
	BaseEmbeddingName         string    // empty for root embeddings
	BaseEmbeddingAxes         []int     // nil for root embeddings
}
