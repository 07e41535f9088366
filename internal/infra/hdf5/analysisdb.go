package hdf5

import (
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"

	"github.com/attriscope/attriscope/internal/domain/workspace"
)

// AnalysisStore serves analysis runs from an HDF5 analysis database. The
// file holds one group per category, each with an `index` dataset, an
// `embedding` group (datasets per embedding, attrs: eigenvalue, base
// embedding, base axes index) and a `cluster` group (datasets per
// clustering).
type AnalysisStore struct {
	mu     sync.Mutex
	path   string
	file   *hdf5.File
	lm     *workspace.LabelMap
	closed bool
}

var _ workspace.AnalysisSource = (*AnalysisStore)(nil)

// OpenAnalysisStore opens an HDF5 analysis database read-only.
func OpenAnalysisStore(path string, lm *workspace.LabelMap) (*AnalysisStore, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open analysis database %s: %w", path, err)
	}
	return &AnalysisStore{path: path, file: file, lm: lm}, nil
}

// Categories lists the category groups of the database. The human-readable
// name is resolved through the label map and left empty for categories that
// are not labels.
func (s *AnalysisStore) Categories() ([]workspace.AnalysisCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoriesLocked()
}

func (s *AnalysisStore) categoriesLocked() ([]workspace.AnalysisCategory, error) {
	if s.closed {
		return nil, workspace.ErrClosed
	}
	root, err := s.file.OpenGroup("/")
	if err != nil {
		return nil, err
	}
	defer root.Close()
	names, err := groupNames(root)
	if err != nil {
		return nil, err
	}
	categories := make([]workspace.AnalysisCategory, 0, len(names))
	for _, name := range names {
		human, err := s.lm.NameByReference(name)
		if err != nil {
			human = ""
		}
		categories = append(categories, workspace.AnalysisCategory{
			Name:              name,
			HumanReadableName: human,
		})
	}
	return categories, nil
}

// ClusteringNames lists the clusterings of the first category. Every
// analysis of one database is assumed to share the same clusterings.
func (s *AnalysisStore) ClusteringNames() ([]string, error) {
	return s.childNames("cluster")
}

// EmbeddingNames lists the embeddings of the first category.
func (s *AnalysisStore) EmbeddingNames() ([]string, error) {
	return s.childNames("embedding")
}

func (s *AnalysisStore) childNames(sub string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories, err := s.categoriesLocked()
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}
	group, err := s.file.OpenGroup(categories[0].Name + "/" + sub)
	if err != nil {
		return nil, err
	}
	defer group.Close()
	return groupNames(group)
}

// Has reports whether the database contains the full triple.
func (s *AnalysisStore) Has(category, clustering, embedding string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for _, name := range []string{
		category + "/cluster/" + clustering,
		category + "/embedding/" + embedding,
	} {
		ds, err := s.file.OpenDataset(name)
		if err != nil {
			return false
		}
		ds.Close()
	}
	return true
}

// Analysis reads one category/clustering/embedding triple. Eigenvalues come
// from the embedding itself or, for derived embeddings, from the base
// embedding named in the `embedding` attribute.
func (s *AnalysisStore) Analysis(category, clustering, embedding string) (*workspace.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, workspace.ErrClosed
	}

	indexDS, err := s.file.OpenDataset(category + "/index")
	if err != nil {
		return nil, fmt.Errorf("analysis %q: %w", category, workspace.ErrNotFound)
	}
	rawIndices, err := readInts(indexDS)
	indexDS.Close()
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(rawIndices))
	for i, v := range rawIndices {
		indices[i] = int(v)
	}

	clusterDS, err := s.file.OpenDataset(category + "/cluster/" + clustering)
	if err != nil {
		return nil, fmt.Errorf("clustering %q: %w", clustering, workspace.ErrNotFound)
	}
	rawClusters, err := readInts(clusterDS)
	clusterDS.Close()
	if err != nil {
		return nil, err
	}
	clusters := make([]int32, len(rawClusters))
	for i, v := range rawClusters {
		clusters[i] = int32(v)
	}

	embeddingDS, err := s.file.OpenDataset(category + "/embedding/" + embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding %q: %w", embedding, workspace.ErrNotFound)
	}
	defer embeddingDS.Close()
	flat, shape, err := readFloats(embeddingDS)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("embedding %q has rank %d, want 2", embedding, len(shape))
	}
	vectors := make([][]float32, shape[0])
	for i := range vectors {
		vectors[i] = flat[i*shape[1] : (i+1)*shape[1]]
	}

	result := &workspace.Analysis{
		CategoryName:       category,
		ClusteringName:     clustering,
		Clustering:         clusters,
		EmbeddingName:      embedding,
		Embedding:          vectors,
		AttributionIndices: indices,
	}
	if human, err := s.lm.NameByReference(category); err == nil {
		result.HumanReadableCategoryName = human
	} else {
		result.HumanReadableCategoryName = category
	}

	if eig, ok := floatArrayAttr(embeddingDS, "eigenvalue"); ok {
		result.EigenValues = eig
	}
	if base, ok := stringAttr(embeddingDS, "embedding"); ok {
		result.BaseEmbeddingName = base
		// Derived embeddings inherit the spectrum of their base.
		if baseDS, err := s.file.OpenDataset(category + "/embedding/" + base); err == nil {
			if eig, ok := floatArrayAttr(baseDS, "eigenvalue"); ok {
				result.EigenValues = eig
			}
			baseDS.Close()
		}
	}
	if axes, ok := intArrayAttr(embeddingDS, "index"); ok {
		result.BaseEmbeddingAxes = axes
	}

	return result, nil
}

func (s *AnalysisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
