// Package projects implements the browse use-cases of the API: listing
// projects and fetching samples, attributions and analyses.
package projects

import (
	"strings"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// Service exposes the loaded workspace to the HTTP layer. All methods are
// read-only and safe for concurrent use.
type Service struct {
	Workspace *workspace.Workspace
}

func NewService(ws *workspace.Workspace) *Service {
	return &Service{Workspace: ws}
}

// ProjectSummary is one row of the project listing.
type ProjectSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Dataset string `json:"dataset"`
}

// AnalysisMethod describes one analysis method of a project. Method names
// use dashes on the wire and underscores in storage.
type AnalysisMethod struct {
	Name        string                       `json:"name"`
	Categories  []workspace.AnalysisCategory `json:"categories"`
	Clusterings []string                     `json:"clusterings"`
	Embeddings  []string                     `json:"embeddings"`
}

// ProjectDetail is the full project description.
type ProjectDetail struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Model           string           `json:"model"`
	Dataset         string           `json:"dataset"`
	AnalysisMethods []AnalysisMethod `json:"analysisMethods"`
}

// Sample is the JSON form of a dataset sample, without the pixel data. The
// image itself is served by a separate endpoint.
type Sample struct {
	Index  int      `json:"index"`
	Labels []string `json:"labels"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	URL    string   `json:"url"`
}

// Attribution is the JSON form of an attribution. URLs maps every color map
// name to the image URL for the requested image mode.
type Attribution struct {
	Index      int               `json:"index"`
	Labels     []string          `json:"labels"`
	Prediction []float32         `json:"prediction"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	URLs       map[string]string `json:"urls"`
}

// EmbeddingVector is one point of an analysis embedding, zipped with its
// cluster and attribution index for the frontend.
type EmbeddingVector struct {
	Cluster          int32     `json:"cluster"`
	AttributionIndex int       `json:"attributionIndex"`
	Value            []float32 `json:"value"`
}

// Analysis is the JSON form of one analysis.
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

// WireMethodName converts a storage method name to its wire form.
func WireMethodName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// StorageMethodName converts a wire method name to its storage form.
func StorageMethodName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// ListProjects lists every loaded project.
func (s *Service) ListProjects() []ProjectSummary {
	all := s.Workspace.Projects()
	out := make([]ProjectSummary, 0, len(all))
	for id, p := range all {
		out = append(out, ProjectSummary{
			ID:      id,
			Name:    p.Name,
			Model:   p.Model,
			Dataset: datasetName(p),
		})
	}
	return out
}

// GetProject returns the full description of one project.
func (s *Service) GetProject(id int) (*ProjectDetail, error) {
	p, err := s.Workspace.ByID(id)
	if err != nil {
		return nil, err
	}

	detail := &ProjectDetail{
		ID:              id,
		Name:            p.Name,
		Model:           p.Model,
		Dataset:         datasetName(p),
		AnalysisMethods: []AnalysisMethod{},
	}
	for _, methodName := range p.AnalysisMethods() {
		categories, err := p.AnalysisCategories(methodName)
		if err != nil {
			return nil, err
		}
		clusterings, err := p.ClusteringNames(methodName)
		if err != nil {
			return nil, err
		}
		embeddings, err := p.EmbeddingNames(methodName)
		if err != nil {
			return nil, err
		}
		detail.AnalysisMethods = append(detail.AnalysisMethods, AnalysisMethod{
			Name:        WireMethodName(methodName),
			Categories:  categories,
			Clusterings: clusterings,
			Embeddings:  embeddings,
		})
	}
	return detail, nil
}

// GetSample fetches a dataset sample. The URL field is filled in by the HTTP
// layer, which knows the route layout.
func (s *Service) GetSample(id, index int) (*workspace.Sample, error) {
	p, err := s.Workspace.ByID(id)
	if err != nil {
		return nil, err
	}
	return p.Sample(index)
}

// GetAttribution fetches an attribution.
func (s *Service) GetAttribution(id, index int) (*workspace.Attribution, error) {
	p, err := s.Workspace.ByID(id)
	if err != nil {
		return nil, err
	}
	return p.Attribution(index)
}

// GetAnalysis fetches one analysis; method is the wire name.
func (s *Service) GetAnalysis(id int, method, category, clustering, embedding string) (*Analysis, error) {
	p, err := s.Workspace.ByID(id)
	if err != nil {
		return nil, err
	}
	a, err := p.Analysis(StorageMethodName(method), category, clustering, embedding)
	if err != nil {
		return nil, err
	}

	zipped := make([]EmbeddingVector, len(a.Embedding))
	for i, value := range a.Embedding {
		var cluster int32
		if i < len(a.Clustering) {
			cluster = a.Clustering[i]
		}
		attributionIndex := 0
		if i < len(a.AttributionIndices) {
			attributionIndex = a.AttributionIndices[i]
		}
		zipped[i] = EmbeddingVector{
			Cluster:          cluster,
			AttributionIndex: attributionIndex,
			Value:            value,
		}
	}

	return &Analysis{
		CategoryName:              a.CategoryName,
		HumanReadableCategoryName: a.HumanReadableCategoryName,
		ClusteringName:            a.ClusteringName,
		EmbeddingName:             a.EmbeddingName,
		Embedding:                 zipped,
		EigenValues:               a.EigenValues,
		BaseEmbeddingName:         a.BaseEmbeddingName,
		BaseEmbeddingAxesIndices:  a.BaseEmbeddingAxes,
	}, nil
}

// RawAnalysis fetches one analysis without reshaping, used for summaries.
func (s *Service) RawAnalysis(id int, method, category, clustering, embedding string) (*workspace.Analysis, error) {
	p, err := s.Workspace.ByID(id)
	if err != nil {
		return nil, err
	}
	return p.Analysis(StorageMethodName(method), category, clustering, embedding)
}

func datasetName(p *workspace.Project) string {
	if p.Dataset == nil {
		return ""
	}
	return p.Dataset.Name()
}
