package workspace

import "fmt"

// Project bundles a model, its dataset, the attribution databases and the
// analysis databases grouped by analysis method.
type Project struct {
	Name                string
	Model               string
	LabelMap            *LabelMap
	Dataset             Dataset
	AttributionMethod   string
	AttributionStrategy string
	Attributions        []AttributionSource

	analyses map[string][]AnalysisSource
	methods  []string // analysis method names in registration order
	closed   bool
}

// NewProject creates an empty project; data sources are attached by the
// loader.
func NewProject(name, model string, labelMap *LabelMap) *Project {
	return &Project{
		Name:     name,
		Model:    model,
		LabelMap: labelMap,
		analyses: make(map[string][]AnalysisSource),
	}
}

// AddAnalysisSource registers an analysis database under a method name.
func (p *Project) AddAnalysisSource(method string, src AnalysisSource) {
	if _, ok := p.analyses[method]; !ok {
		p.methods = append(p.methods, method)
	}
	p.analyses[method] = append(p.analyses[method], src)
}

// Sample fetches a dataset sample by index.
func (p *Project) Sample(index int) (*Sample, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if p.Dataset == nil {
		return nil, fmt.Errorf("project %q has no dataset: %w", p.Name, ErrNotFound)
	}
	return p.Dataset.Sample(index)
}

// Attribution fetches an attribution by index, searching all attribution
// databases of the project.
func (p *Project) Attribution(index int) (*Attribution, error) {
	if p.closed {
		return nil, ErrClosed
	}
	for _, src := range p.Attributions {
		if src.Has(index) {
			return src.Attribution(index)
		}
	}
	return nil, fmt.Errorf("attribution %d: %w", index, ErrNotFound)
}

// AnalysisMethods lists the analysis method names of the project.
func (p *Project) AnalysisMethods() []string {
	return append([]string(nil), p.methods...)
}

// AnalysisCategories unions the categories of all databases of a method.
func (p *Project) AnalysisCategories(method string) ([]AnalysisCategory, error) {
	sources, err := p.analysisSources(method)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var categories []AnalysisCategory
	for _, src := range sources {
		cs, err := src.Categories()
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if !seen[c.Name] {
				seen[c.Name] = true
				categories = append(categories, c)
			}
		}
	}
	return categories, nil
}

// ClusteringNames lists the clusterings of a method. All databases of one
// method are assumed to share the same clusterings, so only the first is
// consulted.
func (p *Project) ClusteringNames(method string) ([]string, error) {
	sources, err := p.analysisSources(method)
	if err != nil {
		return nil, err
	}
	return sources[0].ClusteringNames()
}

// EmbeddingNames lists the embeddings of a method, from the first database.
func (p *Project) EmbeddingNames(method string) ([]string, error) {
	sources, err := p.analysisSources(method)
	if err != nil {
		return nil, err
	}
	return sources[0].EmbeddingNames()
}

// Analysis fetches the analysis for a category/clustering/embedding triple,
// searching all databases of the method.
func (p *Project) Analysis(method, category, clustering, embedding string) (*Analysis, error) {
	sources, err := p.analysisSources(method)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if src.Has(category, clustering, embedding) {
			return src.Analysis(category, clustering, embedding)
		}
	}
	return nil, fmt.Errorf(
		"analysis for category %q, clustering %q, embedding %q: %w",
		category, clustering, embedding, ErrNotFound,
	)
}

func (p *Project) analysisSources(method string) ([]AnalysisSource, error) {
	if p.closed {
		return nil, ErrClosed
	}
	sources, ok := p.analyses[method]
	if !ok || len(sources) == 0 {
		return nil, fmt.Errorf("analysis method %q: %w", method, ErrNotFound)
	}
	return sources, nil
}

// Close releases the dataset and every database of the project.
func (p *Project) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var first error
	if p.Dataset != nil {
		if err := p.Dataset.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, src := range p.Attributions {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, sources := range p.analyses {
		for _, src := range sources {
			if err := src.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
