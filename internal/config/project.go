package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the on-disk definition of a single project. All paths inside
// the file are relative to the directory containing it.
type ProjectFile struct {
	Project struct {
		Name         string            `yaml:"name"`
		Model        string            `yaml:"model"`
		LabelMap     string            `yaml:"label_map"`
		Dataset      *DatasetConfig    `yaml:"dataset"`
		Attributions *AttributionsList `yaml:"attributions"`
		Analyses     []AnalysisConfig  `yaml:"analyses"`
	} `yaml:"project"`

	// Directory of the project file, used to resolve relative paths.
	dir string
}

type DatasetConfig struct {
	Type                string `yaml:"type"` // hdf5 | image_directory
	Name                string `yaml:"name"`
	Path                string `yaml:"path"`
	LabelIndexRegex     string `yaml:"label_index_regex"`
	LabelWordNetIDRegex string `yaml:"label_word_net_id_regex"`
	InputWidth          int    `yaml:"input_width"`
	InputHeight         int    `yaml:"input_height"`
	DownSamplingMethod  string `yaml:"down_sampling_method"`
	UpSamplingMethod    string `yaml:"up_sampling_method"`
}

type AttributionsList struct {
	AttributionMethod   string   `yaml:"attribution_method"`
	AttributionStrategy string   `yaml:"attribution_strategy"`
	Sources             []string `yaml:"sources"`
}

type AnalysisConfig struct {
	AnalysisMethod string   `yaml:"analysis_method"`
	Sources        []string `yaml:"sources"`
}

// LoadProjectFile reads and validates a project YAML file.
func LoadProjectFile(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if pf.Project.Name == "" {
		return nil, fmt.Errorf("project file %s: missing project name", path)
	}
	if pf.Project.LabelMap == "" {
		return nil, fmt.Errorf("project file %s: missing label map", path)
	}
	pf.dir = filepath.Dir(path)
	return &pf, nil
}

// Resolve turns a path from the project file into an absolute one.
func (pf *ProjectFile) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(pf.dir, rel)
}
