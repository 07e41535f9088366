package client

import "time"

// ProjectSummary is one row of the project listing.
type ProjectSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Dataset string `json:"dataset"`
}

// AnalysisCategory is one category of an analysis method.
type AnalysisCategory struct {
	Name              string `json:"name"`
	HumanReadableName string `json:"humanReadableName"`
}

// AnalysisMethod describes one analysis method of a project.
type AnalysisMethod struct {
	Name        string             `json:"name"`
	Categories  []AnalysisCategory `json:"categories"`
	Clusterings []string           `json:"clusterings"`
	Embeddings  []string           `json:"embeddings"`
}

// Project is the full project description.
type Project struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Model           string           `json:"model"`
	Dataset         string           `json:"dataset"`
	AnalysisMethods []AnalysisMethod `json:"analysisMethods"`
}

// Sample is one dataset sample. The image is fetched separately via URL.
type Sample struct {
	Index  int      `json:"index"`
	Labels []string `json:"labels"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	URL    string   `json:"url"`
}

// Attribution is one attribution. URLs maps color map names to image URLs
// for the requested image mode.
type Attribution struct {
	Index      int               `json:"index"`
	Labels     []string          `json:"labels"`
	Prediction []float32         `json:"prediction"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	URLs       map[string]string `json:"urls"`
}

// EmbeddingVector is one point of an analysis embedding.
type EmbeddingVector struct {
	Cluster          int32     `json:"cluster"`
	AttributionIndex int       `json:"attributionIndex"`
	Value            []float32 `json:"value"`
}

// Analysis is one analysis result.
type Analysis struct {
	CategoryName              string            `json:"categoryName"`
	HumanReadableCategoryName string            `json:"humanReadableCategoryName"`
	ClusteringName            string            `json:"clusteringName"`
	EmbeddingName             string            `json:"embeddingName"`
	Embedding                 []EmbeddingVector `json:"embedding"`
	EigenValues               []float32         `json:"eigenValues,omitempty"`
	BaseEmbeddingName         string            `json:"baseEmbeddingName,omitempty"`
	BaseEmbeddingAxesIndices  []int             `json:"baseEmbeddingAxesIndices,omitempty"`
}

// ColorMap describes one supported heatmap color map.
type ColorMap struct {
	Name              string `json:"name"`
	HumanReadableName string `json:"humanReadableName"`
	URL               string `json:"url"`
}

// JobRequest triggers one analysis run.
type JobRequest struct {
	Method        string `json:"method"`
	Category      string `json:"category,omitempty"`
	Neighbors     int    `json:"neighbors,omitempty"`
	EmbeddingDims int    `json:"embeddingDims,omitempty"`
	ClustersMin   int    `json:"clustersMin,omitempty"`
	ClustersMax   int    `json:"clustersMax,omitempty"`
}

// JobQueued is the acceptance response of a triggered job.
type JobQueued struct {
	Status   string `json:"status"`
	Project  string `json:"project"`
	Method   string `json:"method"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Job is one analysis job row.
type Job struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	Method      string    `json:"method"`
	Category    string    `json:"category,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
	Status      string    `json:"status"`
	Categories  int       `json:"categories"`
	DurationMS  int64     `json:"duration_ms"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// SummaryRequest asks for an AI summary of one analysis.
type SummaryRequest struct {
	Category   string `json:"category"`
	Clustering string `json:"clustering"`
	Embedding  string `json:"embedding"`
}
