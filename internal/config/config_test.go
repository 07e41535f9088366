package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 8000
  debug: true
  authToken: secret
workspace:
  projects:
    - projects/vgg16.yaml
database:
  driver: postgres
  host: localhost
  port: 5432
  user: attriscope
  password: pass
  name: attriscope
minio:
  endpoint: localhost:9000
  bucketName: artifacts
openai:
  apiKey: sk-test
`
	path := writeFile(t, t.TempDir(), "config.yaml", content)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
	assert.Equal(t, []string{"projects/vgg16.yaml"}, cfg.Workspace.Projects)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "artifacts", cfg.Minio.BucketName)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoadDefaultsDriver(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "server:\n  port: 8000\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSNs(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "n"

	assert.Equal(t, "u:p@tcp(db:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
	assert.Equal(t, "host=db port=3306 user=u password=p dbname=n sslmode=disable", cfg.PostgresDSN())
}

func TestLoadProjectFile(t *testing.T) {
	content := `
project:
  name: VGG16 ImageNet
  model: VGG16
  label_map: label-map.json
  dataset:
    type: hdf5
    name: ImageNet
    path: dataset.h5
  attributions:
    attribution_method: LRP
    attribution_strategy: true_label
    sources:
      - attributions.h5
  analyses:
    - analysis_method: spectral_analysis
      sources:
        - analysis.h5
`
	dir := t.TempDir()
	path := writeFile(t, dir, "project.yaml", content)

	pf, err := LoadProjectFile(path)
	require.NoError(t, err)

	assert.Equal(t, "VGG16 ImageNet", pf.Project.Name)
	assert.Equal(t, "VGG16", pf.Project.Model)
	require.NotNil(t, pf.Project.Dataset)
	assert.Equal(t, "hdf5", pf.Project.Dataset.Type)
	require.NotNil(t, pf.Project.Attributions)
	assert.Equal(t, "LRP", pf.Project.Attributions.AttributionMethod)
	require.Len(t, pf.Project.Analyses, 1)
	assert.Equal(t, "spectral_analysis", pf.Project.Analyses[0].AnalysisMethod)
}

func TestLoadProjectFileValidation(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "noname.yaml", "project:\n  label_map: labels.json\n")
	_, err := LoadProjectFile(path)
	assert.Error(t, err)

	path = writeFile(t, dir, "nolabels.yaml", "project:\n  name: p\n")
	_, err = LoadProjectFile(path)
	assert.Error(t, err)
}

func TestProjectFileResolve(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.yaml", "project:\n  name: p\n  label_map: labels.json\n")

	pf, err := LoadProjectFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dataset.h5"), pf.Resolve("dataset.h5"))
	assert.Equal(t, "/abs/dataset.h5", pf.Resolve("/abs/dataset.h5"))
}
