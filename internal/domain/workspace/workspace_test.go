package workspace

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDataset struct{ closed bool }

func (d *stubDataset) Name() string { return "stub" }
func (d *stubDataset) Len() int     { return 1 }
func (d *stubDataset) Close() error { d.closed = true; return nil }

func (d *stubDataset) Sample(index int) (*Sample, error) {
	if index != 0 {
		return nil, fmt.Errorf("sample %d: %w", index, ErrNotFound)
	}
	return &Sample{Index: 0}, nil
}

type stubAttributions struct {
	indices map[int]bool
	closed  bool
}

func (a *stubAttributions) Has(index int) bool { return a.indices[index] }

func (a *stubAttributions) Indices() []int {
	var out []int
	for i := range a.indices {
		out = append(out, i)
	}
	return out
}

func (a *stubAttributions) Attribution(index int) (*Attribution, error) {
	if !a.indices[index] {
		return nil, ErrNotFound
	}
	return &Attribution{Index: index}, nil
}

func (a *stubAttributions) Close() error { a.closed = true; return nil }

type stubAnalyses struct {
	category string
	closed   bool
}

func (s *stubAnalyses) Categories() ([]AnalysisCategory, error) {
	return []AnalysisCategory{{Name: s.category}}, nil
}

func (s *stubAnalyses) ClusteringNames() ([]string, error) { return []string{"kmeans-02"}, nil }
func (s *stubAnalyses) EmbeddingNames() ([]string, error)  { return []string{"spectral"}, nil }

func (s *stubAnalyses) Has(category, clustering, embedding string) bool {
	return category == s.category
}

func (s *stubAnalyses) Analysis(category, clustering, embedding string) (*Analysis, error) {
	if category != s.category {
		return nil, ErrNotFound
	}
	return &Analysis{CategoryName: category}, nil
}

func (s *stubAnalyses) Close() error { s.closed = true; return nil }

func TestWorkspaceByIDAndByName(t *testing.T) {
	ws := New()
	require.NoError(t, ws.Add(NewProject("first", "m1", nil)))
	require.NoError(t, ws.Add(NewProject("second", "m2", nil)))
	require.Equal(t, 2, ws.Len())

	p, err := ws.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "second", p.Name)

	_, err = ws.ByID(2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ws.ByID(-1)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = ws.ByName("first")
	require.NoError(t, err)
	assert.Equal(t, "m1", p.Model)

	_, err = ws.ByName("third")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkspaceClose(t *testing.T) {
	ds := &stubDataset{}
	project := NewProject("p", "m", nil)
	project.Dataset = ds

	ws := New()
	require.NoError(t, ws.Add(project))
	require.NoError(t, ws.Close())

	assert.True(t, ds.closed)
	_, err := ws.ByID(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, ws.Add(NewProject("late", "", nil)), ErrClosed)
}

func TestProjectAttributionSearchesAllSources(t *testing.T) {
	project := NewProject("p", "m", nil)
	project.Attributions = []AttributionSource{
		&stubAttributions{indices: map[int]bool{0: true}},
		&stubAttributions{indices: map[int]bool{7: true}},
	}

	attribution, err := project.Attribution(7)
	require.NoError(t, err)
	assert.Equal(t, 7, attribution.Index)

	_, err = project.Attribution(3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectAnalysisMethods(t *testing.T) {
	project := NewProject("p", "m", nil)
	project.AddAnalysisSource("spectral_analysis", &stubAnalyses{category: "a"})
	project.AddAnalysisSource("spectral_analysis", &stubAnalyses{category: "b"})
	project.AddAnalysisSource("other_method", &stubAnalyses{category: "a"})

	assert.Equal(t, []string{"spectral_analysis", "other_method"}, project.AnalysisMethods())

	// Categories union over all databases of the method, without duplicates.
	categories, err := project.AnalysisCategories("spectral_analysis")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "a", categories[0].Name)
	assert.Equal(t, "b", categories[1].Name)

	// The analysis is found in whichever database has the category.
	analysis, err := project.Analysis("spectral_analysis", "b", "kmeans-02", "spectral")
	require.NoError(t, err)
	assert.Equal(t, "b", analysis.CategoryName)

	_, err = project.Analysis("spectral_analysis", "z", "kmeans-02", "spectral")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = project.Analysis("unknown_method", "a", "kmeans-02", "spectral")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectSampleWithoutDataset(t *testing.T) {
	project := NewProject("p", "m", nil)
	_, err := project.Sample(0)
	assert.ErrorIs(t, err, ErrNotFound)
}
