// Package pipeline runs the spectral analysis over a project's attributions
// and writes the result as an HDF5 analysis database.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/attriscope/attriscope/internal/analysis"
	"github.com/attriscope/attriscope/internal/domain/jobs"
	"github.com/attriscope/attriscope/internal/domain/workspace"
	"github.com/attriscope/attriscope/internal/infra/hdf5"
)

// Runner executes analysis jobs against the loaded workspace.
type Runner struct {
	Workspace *workspace.Workspace
	// WorkDir holds the analysis databases while they are being written.
	// Empty means the system temp directory.
	WorkDir string
	// Parallelism bounds the number of categories analyzed concurrently.
	Parallelism int
}

var _ jobs.Runner = (*Runner)(nil)

// Run loads the attributions of the project, groups them by category, runs
// the spectral pipeline per category and writes one analysis database.
func (r *Runner) Run(ctx context.Context, req jobs.RunRequest) (jobs.RunResult, error) {
	start := time.Now()

	project, err := r.Workspace.ByName(req.Project)
	if err != nil {
		return jobs.RunResult{}, err
	}

	params := req.Params
	if params == (jobs.Params{}) {
		params = jobs.DefaultParams()
	}
	cfg := analysis.Config{
		Neighbors:     params.Neighbors,
		EmbeddingDims: params.EmbeddingDims,
		ClustersMin:   params.ClustersMin,
		ClustersMax:   params.ClustersMax,
	}

	results, err := AnalyzeProject(ctx, project, req.Category, cfg, r.Parallelism)
	if err != nil {
		return jobs.RunResult{}, err
	}

	dir := r.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("analysis-%s-%s-%d.h5", req.Project, req.Method, time.Now().UnixNano())
	path := filepath.Join(dir, name)
	if err := WriteDatabase(path, results); err != nil {
		return jobs.RunResult{}, err
	}

	return jobs.RunResult{
		LocalArtifactPath: path,
		Categories:        len(results),
		DurationMS:        time.Since(start).Milliseconds(),
	}, nil
}

// AnalyzeProject groups the project's attributions by category and runs the
// spectral pipeline per category. A non-empty category restricts the run to
// that category.
func AnalyzeProject(ctx context.Context, project *workspace.Project, category string, cfg analysis.Config, parallelism int) ([]*analysis.CategoryResult, error) {
	if len(project.Attributions) == 0 {
		return nil, fmt.Errorf("project %q has no attribution databases", project.Name)
	}

	groups, err := collectCategories(ctx, project, category)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("project %q has no attributions for category %q", project.Name, category)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*analysis.CategoryResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			group := groups[name]
			result, err := analysis.Run(cfg, name, group.indices, group.rows)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteDatabase writes the analyzed categories as one HDF5 analysis
// database. A partially written file is removed on error.
func WriteDatabase(path string, results []*analysis.CategoryResult) error {
	writer, err := hdf5.CreateAnalysisDatabase(path)
	if err != nil {
		return err
	}
	for _, result := range results {
		if err := writer.WriteCategory(result.Category, result.Indices, result.Embedding, result.EigenValues, result.Clusterings); err != nil {
			writer.Close()
			os.Remove(path)
			return err
		}
	}
	if err := writer.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

type categoryGroup struct {
	indices []int
	rows    [][]float64
}

// collectCategories reads every attribution of the project and groups the
// flattened relevance maps by label reference.
func collectCategories(ctx context.Context, project *workspace.Project, category string) (map[string]*categoryGroup, error) {
	groups := make(map[string]*categoryGroup)
	for _, src := range project.Attributions {
		for _, index := range src.Indices() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			attribution, err := src.Attribution(index)
			if err != nil {
				return nil, err
			}
			name := attribution.LabelRef
			if name == "" {
				name = "unlabeled"
			}
			if category != "" && name != category {
				continue
			}
			group, ok := groups[name]
			if !ok {
				group = &categoryGroup{}
				groups[name] = group
			}
			group.indices = append(group.indices, index)
			group.rows = append(group.rows, flatten(attribution.Data))
		}
	}
	return groups, nil
}

func flatten(t workspace.Tensor) []float64 {
	flat := t.SumChannels()
	row := make([]float64, len(flat.Data))
	for i, v := range flat.Data {
		row[i] = float64(v)
	}
	return row
}
