// Package loader builds the workspace from project YAML files.
package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/attriscope/attriscope/internal/config"
	"github.com/attriscope/attriscope/internal/domain/workspace"
	"github.com/attriscope/attriscope/internal/infra/hdf5"
	"github.com/attriscope/attriscope/internal/infra/imagedir"
)

// Load opens every project file and assembles the workspace. Projects load
// in parallel but keep the order of paths, which fixes their IDs.
func Load(ctx context.Context, paths []string) (*workspace.Workspace, error) {
	projects := make([]*workspace.Project, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			project, err := LoadProject(path)
			if err != nil {
				return fmt.Errorf("load project %s: %w", path, err)
			}
			projects[i] = project
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range projects {
			if p != nil {
				p.Close()
			}
		}
		return nil, err
	}

	ws := workspace.New()
	for _, p := range projects {
		if err := ws.Add(p); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// LoadProject opens one project with all its databases.
func LoadProject(path string) (*workspace.Project, error) {
	pf, err := config.LoadProjectFile(path)
	if err != nil {
		return nil, err
	}

	labelMap, err := workspace.LoadLabelMap(pf.Resolve(pf.Project.LabelMap))
	if err != nil {
		return nil, err
	}

	project := workspace.NewProject(pf.Project.Name, pf.Project.Model, labelMap)
	fail := func(err error) (*workspace.Project, error) {
		project.Close()
		return nil, err
	}

	if ds := pf.Project.Dataset; ds != nil {
		dataset, err := openDataset(pf, ds, labelMap)
		if err != nil {
			return fail(err)
		}
		project.Dataset = dataset
	}

	if attr := pf.Project.Attributions; attr != nil {
		project.AttributionMethod = attr.AttributionMethod
		project.AttributionStrategy = attr.AttributionStrategy
		for _, source := range attr.Sources {
			store, err := hdf5.OpenAttributionStore(pf.Resolve(source), labelMap)
			if err != nil {
				return fail(err)
			}
			project.Attributions = append(project.Attributions, store)
		}
	}

	for _, analysis := range pf.Project.Analyses {
		if analysis.AnalysisMethod == "" {
			return fail(fmt.Errorf("project %q: analysis without method name", pf.Project.Name))
		}
		for _, source := range analysis.Sources {
			store, err := hdf5.OpenAnalysisStore(pf.Resolve(source), labelMap)
			if err != nil {
				return fail(err)
			}
			project.AddAnalysisSource(analysis.AnalysisMethod, store)
		}
	}

	return project, nil
}

func openDataset(pf *config.ProjectFile, ds *config.DatasetConfig, labelMap *workspace.LabelMap) (workspace.Dataset, error) {
	name := ds.Name
	if name == "" {
		name = pf.Project.Name
	}
	switch ds.Type {
	case "", "hdf5":
		return hdf5.OpenDataset(name, pf.Resolve(ds.Path), labelMap)
	case "image_directory":
		return imagedir.Open(name, pf.Resolve(ds.Path), labelMap, imagedir.Options{
			LabelIndexRegex:     ds.LabelIndexRegex,
			LabelWordNetIDRegex: ds.LabelWordNetIDRegex,
			InputWidth:          ds.InputWidth,
			InputHeight:         ds.InputHeight,
			UpSamplingMethod:    ds.UpSamplingMethod,
			DownSamplingMethod:  ds.DownSamplingMethod,
		})
	default:
		return nil, fmt.Errorf("unknown dataset type %q: %w", ds.Type, workspace.ErrUnsupported)
	}
}
