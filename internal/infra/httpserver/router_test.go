package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appai "github.com/attriscope/attriscope/internal/application/ai"
	appjobs "github.com/attriscope/attriscope/internal/application/jobs"
	appprojects "github.com/attriscope/attriscope/internal/application/projects"
	domjobs "github.com/attriscope/attriscope/internal/domain/jobs"
	"github.com/attriscope/attriscope/internal/domain/workspace"
)

type fakeDataset struct {
	samples []*workspace.Sample
}

func (d *fakeDataset) Name() string { return "ImageNet" }
func (d *fakeDataset) Len() int     { return len(d.samples) }
func (d *fakeDataset) Close() error { return nil }

func (d *fakeDataset) Sample(index int) (*workspace.Sample, error) {
	if index < 0 || index >= len(d.samples) {
		return nil, fmt.Errorf("sample %d: %w", index, workspace.ErrNotFound)
	}
	return d.samples[index], nil
}

type fakeAttributions struct {
	attributions map[int]*workspace.Attribution
}

func (a *fakeAttributions) Has(index int) bool {
	_, ok := a.attributions[index]
	return ok
}

func (a *fakeAttributions) Indices() []int {
	out := make([]int, 0, len(a.attributions))
	for i := range a.attributions {
		out = append(out, i)
	}
	return out
}

func (a *fakeAttributions) Attribution(index int) (*workspace.Attribution, error) {
	attr, ok := a.attributions[index]
	if !ok {
		return nil, fmt.Errorf("attribution %d: %w", index, workspace.ErrNotFound)
	}
	return attr, nil
}

func (a *fakeAttributions) Close() error { return nil }

type fakeAnalyses struct {
	analyses map[string]*workspace.Analysis // key category/clustering/embedding
}

func analysisKey(category, clustering, embedding string) string {
	return category + "/" + clustering + "/" + embedding
}

func (a *fakeAnalyses) Categories() ([]workspace.AnalysisCategory, error) {
	return []workspace.AnalysisCategory{{Name: "n01514859", HumanReadableName: "hen"}}, nil
}

func (a *fakeAnalyses) ClusteringNames() ([]string, error) {
	return []string{"kmeans-02", "kmeans-03"}, nil
}

func (a *fakeAnalyses) EmbeddingNames() ([]string, error) {
	return []string{"spectral"}, nil
}

func (a *fakeAnalyses) Has(category, clustering, embedding string) bool {
	_, ok := a.analyses[analysisKey(category, clustering, embedding)]
	return ok
}

func (a *fakeAnalyses) Analysis(category, clustering, embedding string) (*workspace.Analysis, error) {
	analysis, ok := a.analyses[analysisKey(category, clustering, embedding)]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return analysis, nil
}

func (a *fakeAnalyses) Close() error { return nil }

func grayTensor(w, h int, v float32) workspace.Tensor {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = v
	}
	return workspace.Tensor{Height: h, Width: w, Channels: 1, Data: data}
}

func testWorkspace() *workspace.Workspace {
	project := workspace.NewProject("VGG16 ImageNet", "VGG16", workspace.NewLabelMap(nil))
	project.Dataset = &fakeDataset{samples: []*workspace.Sample{
		{Index: 0, Labels: []string{"hen"}, Data: grayTensor(4, 4, 128)},
	}}
	project.Attributions = []workspace.AttributionSource{&fakeAttributions{
		attributions: map[int]*workspace.Attribution{
			0: {
				Index:      0,
				LabelRef:   "n01514859",
				Labels:     []string{"hen"},
				Prediction: []float32{0.9, 0.1},
				Data:       grayTensor(4, 4, 0.5),
			},
		},
	}}
	project.AddAnalysisSource("spectral_analysis", &fakeAnalyses{
		analyses: map[string]*workspace.Analysis{
			analysisKey("n01514859", "kmeans-02", "spectral"): {
				CategoryName:              "n01514859",
				HumanReadableCategoryName: "hen",
				ClusteringName:            "kmeans-02",
				Clustering:                []int32{0, 1},
				EmbeddingName:             "spectral",
				Embedding:                 [][]float32{{0.1, 0.2}, {0.3, 0.4}},
				AttributionIndices:        []int{0, 1},
				EigenValues:               []float32{0.0, 0.5},
			},
		},
	})

	ws := workspace.New()
	if err := ws.Add(project); err != nil {
		panic(err)
	}
	return ws
}

func testRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	return NewRouter(appprojects.NewService(testWorkspace()), nil, nil, opts)
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListProjects(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var projects []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, float64(0), projects[0]["id"])
	assert.Equal(t, "VGG16 ImageNet", projects[0]["name"])
	assert.Equal(t, "VGG16", projects[0]["model"])
	assert.Equal(t, "ImageNet", projects[0]["dataset"])
}

func TestGetProject(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Name            string `json:"name"`
		AnalysisMethods []struct {
			Name       string `json:"name"`
			Categories []struct {
				Name              string `json:"name"`
				HumanReadableName string `json:"humanReadableName"`
			} `json:"categories"`
			Clusterings []string `json:"clusterings"`
			Embeddings  []string `json:"embeddings"`
		} `json:"analysisMethods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))

	assert.Equal(t, "VGG16 ImageNet", detail.Name)
	require.Len(t, detail.AnalysisMethods, 1)
	// Storage names use underscores, wire names dashes.
	assert.Equal(t, "spectral-analysis", detail.AnalysisMethods[0].Name)
	require.Len(t, detail.AnalysisMethods[0].Categories, 1)
	assert.Equal(t, "hen", detail.AnalysisMethods[0].Categories[0].HumanReadableName)
	assert.Equal(t, []string{"kmeans-02", "kmeans-03"}, detail.AnalysisMethods[0].Clusterings)
	assert.Equal(t, []string{"spectral"}, detail.AnalysisMethods[0].Embeddings)
}

func TestGetProjectNotFound(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["errorMessage"], "project 42")
}

func TestGetProjectBadID(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSample(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0/dataset/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sample struct {
		Index  int      `json:"index"`
		Labels []string `json:"labels"`
		Width  int      `json:"width"`
		Height int      `json:"height"`
		URL    string   `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sample))
	assert.Equal(t, 0, sample.Index)
	assert.Equal(t, []string{"hen"}, sample.Labels)
	assert.Equal(t, 4, sample.Width)
	assert.Equal(t, "/api/projects/0/dataset/0/image", sample.URL)
}

func TestGetSampleImage(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0/dataset/0/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	img, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestGetSampleNotFound(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0/dataset/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAttribution(t *testing.T) {
	handler := testRouter(t, Options{})

	tests := []struct {
		name      string
		target    string
		wantURL   string
		superWant string
	}{
		{
			name:    "default input mode",
			target:  "/api/projects/0/attributions/0",
			wantURL: "/api/projects/0/dataset/0/image",
		},
		{
			name:      "attribution mode",
			target:    "/api/projects/0/attributions/0?imageMode=attribution",
			wantURL:   "/api/projects/0/attributions/0/heatmap?colorMap=jet&superimpose=false",
			superWant: "false",
		},
		{
			name:      "overlay mode",
			target:    "/api/projects/0/attributions/0?imageMode=overlay",
			wantURL:   "/api/projects/0/attributions/0/heatmap?colorMap=jet&superimpose=true",
			superWant: "true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var attribution struct {
				Index      int               `json:"index"`
				Labels     []string          `json:"labels"`
				Prediction []float32         `json:"prediction"`
				URLs       map[string]string `json:"urls"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attribution))
			assert.Equal(t, []string{"hen"}, attribution.Labels)
			assert.Equal(t, []float32{0.9, 0.1}, attribution.Prediction)
			require.Len(t, attribution.URLs, 8)
			assert.Equal(t, tt.wantURL, attribution.URLs["jet"])
		})
	}
}

func TestGetAttributionBadImageMode(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0/attributions/0?imageMode=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHeatmap(t *testing.T) {
	handler := testRouter(t, Options{})

	rec := doRequest(t, handler, http.MethodGet, "/api/projects/0/attributions/0/heatmap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	_, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	rec = doRequest(t, handler, http.MethodGet, "/api/projects/0/attributions/0/heatmap?colorMap=gray-red&superimpose=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/projects/0/attributions/0/heatmap?colorMap=viridis", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnalysis(t *testing.T) {
	handler := testRouter(t, Options{})

	rec := doRequest(t, handler, http.MethodGet,
		"/api/projects/0/analyses/spectral-analysis?category=n01514859&clustering=kmeans-02&embedding=spectral", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis struct {
		CategoryName              string    `json:"categoryName"`
		HumanReadableCategoryName string    `json:"humanReadableCategoryName"`
		ClusteringName            string    `json:"clusteringName"`
		EmbeddingName             string    `json:"embeddingName"`
		EigenValues               []float32 `json:"eigenValues"`
		Embedding                 []struct {
			Cluster          int32     `json:"cluster"`
			AttributionIndex int       `json:"attributionIndex"`
			Value            []float32 `json:"value"`
		} `json:"embedding"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))

	assert.Equal(t, "n01514859", analysis.CategoryName)
	assert.Equal(t, "hen", analysis.HumanReadableCategoryName)
	assert.Equal(t, "kmeans-02", analysis.ClusteringName)
	assert.Equal(t, "spectral", analysis.EmbeddingName)
	require.Len(t, analysis.Embedding, 2)
	assert.Equal(t, int32(1), analysis.Embedding[1].Cluster)
	assert.Equal(t, 1, analysis.Embedding[1].AttributionIndex)
	assert.Equal(t, []float32{0.3, 0.4}, analysis.Embedding[1].Value)
	assert.Equal(t, []float32{0, 0.5}, analysis.EigenValues)
}

func TestGetAnalysisValidation(t *testing.T) {
	handler := testRouter(t, Options{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "missing category", target: "/api/projects/0/analyses/spectral-analysis?clustering=c&embedding=e", want: http.StatusBadRequest},
		{name: "missing clustering", target: "/api/projects/0/analyses/spectral-analysis?category=c&embedding=e", want: http.StatusBadRequest},
		{name: "missing embedding", target: "/api/projects/0/analyses/spectral-analysis?category=c&clustering=c", want: http.StatusBadRequest},
		{name: "unknown method", target: "/api/projects/0/analyses/nope?category=c&clustering=c&embedding=e", want: http.StatusNotFound},
		{name: "unknown triple", target: "/api/projects/0/analyses/spectral-analysis?category=x&clustering=y&embedding=z", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestListColorMaps(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/color-maps", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var maps []struct {
		Name              string `json:"name"`
		HumanReadableName string `json:"humanReadableName"`
		URL               string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &maps))
	require.Len(t, maps, 8)
	assert.Equal(t, "gray-red", maps[0].Name)
	assert.Equal(t, "Gray Red", maps[0].HumanReadableName)
	assert.Equal(t, "/api/color-maps/gray-red", maps[0].URL)
}

func TestColorMapPreview(t *testing.T) {
	handler := testRouter(t, Options{})

	rec := doRequest(t, handler, http.MethodGet, "/api/color-maps/jet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	rec = doRequest(t, handler, http.MethodGet, "/api/color-maps/jet?width=64&height=8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	rec = doRequest(t, handler, http.MethodGet, "/api/color-maps/jet?width=99999", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/color-maps/viridis", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsNotConfigured(t *testing.T) {
	handler := testRouter(t, Options{})

	rec := doRequest(t, handler, http.MethodPost, "/api/projects/0/jobs", []byte(`{"method":"spectral-analysis"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/projects/0/jobs/latest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type memJobRepo struct {
	jobs map[domjobs.JobID]*domjobs.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[domjobs.JobID]*domjobs.Job)}
}

func (r *memJobRepo) Save(ctx context.Context, j *domjobs.Job) error {
	row := *j
	r.jobs[j.ID] = &row
	return nil
}

func (r *memJobRepo) Get(ctx context.Context, project string, id domjobs.JobID) (*domjobs.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return j, nil
}

func (r *memJobRepo) Latest(ctx context.Context, project string, limit int) ([]*domjobs.Job, error) {
	var out []*domjobs.Job
	for _, j := range r.jobs {
		if j.Project == project {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *memJobRepo) UpdateStatus(ctx context.Context, project string, id domjobs.JobID, status domjobs.Status, errMsg string) error {
	if j, ok := r.jobs[id]; ok {
		j.Status = status
		j.Error = errMsg
	}
	return nil
}

type stubRunner struct{ req chan domjobs.RunRequest }

func (r *stubRunner) Run(ctx context.Context, req domjobs.RunRequest) (domjobs.RunResult, error) {
	r.req <- req
	return domjobs.RunResult{LocalArtifactPath: "/tmp/analysis.h5", Categories: 1, DurationMS: 5}, nil
}

type stubArtifacts struct{}

func (stubArtifacts) Upload(ctx context.Context, localPath, key string) (string, error) {
	return "http://minio/artifacts/" + key, nil
}

func (stubArtifacts) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	return "http://minio/artifacts/" + key, nil
}

func TestTriggerJob(t *testing.T) {
	runner := &stubRunner{req: make(chan domjobs.RunRequest, 1)}
	jobsSvc := &appjobs.Service{
		Repo:      newMemJobRepo(),
		Runner:    runner,
		Artifacts: stubArtifacts{},
		Clock:     appjobs.SystemClock{},
	}
	handler := NewRouter(appprojects.NewService(testWorkspace()), jobsSvc, nil, Options{AuthToken: "secret"})

	body := []byte(`{"method":"spectral-analysis","category":"n01514859","neighbors":4}`)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/0/jobs", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var queued struct {
		Status  string `json:"status"`
		Project string `json:"project"`
		Method  string `json:"method"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queued))
	assert.Equal(t, "queued", queued.Status)
	assert.Equal(t, "VGG16 ImageNet", queued.Project)
	assert.Equal(t, "spectral-analysis", queued.Method)

	// The background goroutine reaches the runner with the storage method
	// name and the overridden parameter.
	select {
	case runReq := <-runner.req:
		assert.Equal(t, "spectral_analysis", runReq.Method)
		assert.Equal(t, "n01514859", runReq.Category)
		assert.Equal(t, 4, runReq.Params.Neighbors)
		assert.Equal(t, 8, runReq.Params.EmbeddingDims)
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not invoked")
	}
}

func TestTriggerJobValidation(t *testing.T) {
	jobsSvc := &appjobs.Service{
		Repo:      newMemJobRepo(),
		Runner:    &stubRunner{req: make(chan domjobs.RunRequest, 1)},
		Artifacts: stubArtifacts{},
		Clock:     appjobs.SystemClock{},
	}
	handler := NewRouter(appprojects.NewService(testWorkspace()), jobsSvc, nil, Options{})

	rec := doRequest(t, handler, http.MethodPost, "/api/projects/0/jobs", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/projects/0/jobs", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/projects/7/jobs", []byte(`{"method":"m"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsAuth(t *testing.T) {
	jobsSvc := &appjobs.Service{
		Repo:      newMemJobRepo(),
		Runner:    &stubRunner{req: make(chan domjobs.RunRequest, 1)},
		Artifacts: stubArtifacts{},
		Clock:     appjobs.SystemClock{},
	}
	handler := NewRouter(appprojects.NewService(testWorkspace()), jobsSvc, nil, Options{AuthToken: "secret"})

	// No token at all.
	rec := doRequest(t, handler, http.MethodGet, "/api/projects/0/jobs/latest", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Read-only endpoints stay open.
	rec = doRequest(t, handler, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A valid token unlocks the job listing.
	req := httptest.NewRequest(http.MethodGet, "/api/projects/0/jobs/latest", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetJob(t *testing.T) {
	repo := newMemJobRepo()
	job := &domjobs.Job{
		ID:          "abc-spectral_analysis",
		Project:     "VGG16 ImageNet",
		Method:      "spectral_analysis",
		TriggeredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:      domjobs.StatusSuccess,
		Categories:  3,
		ArtifactURL: "http://minio/a.h5",
	}
	require.NoError(t, repo.Save(context.Background(), job))

	jobsSvc := &appjobs.Service{Repo: repo, Runner: &stubRunner{req: make(chan domjobs.RunRequest, 1)}, Artifacts: stubArtifacts{}, Clock: appjobs.SystemClock{}}
	handler := NewRouter(appprojects.NewService(testWorkspace()), jobsSvc, nil, Options{})

	rec := doRequest(t, handler, http.MethodGet, "/api/projects/0/jobs/abc-spectral_analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domjobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domjobs.StatusSuccess, got.Status)
	assert.Equal(t, 3, got.Categories)

	rec = doRequest(t, handler, http.MethodGet, "/api/projects/0/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubAIClient struct{ answer string }

func (c stubAIClient) Summarize(ctx context.Context, digest string) (string, error) {
	return c.answer, nil
}

func TestSummarize(t *testing.T) {
	aiSvc := appai.NewService(stubAIClient{answer: `{"summary":"two clusters"}`})
	handler := NewRouter(appprojects.NewService(testWorkspace()), nil, aiSvc, Options{})

	body := []byte(`{"category":"n01514859","clustering":"kmeans-02","embedding":"spectral"}`)
	rec := doRequest(t, handler, http.MethodPost, "/api/projects/0/analyses/spectral-analysis/summary", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"summary":"two clusters"}`, rec.Body.String())

	rec = doRequest(t, handler, http.MethodPost, "/api/projects/0/analyses/spectral-analysis/summary", []byte(`{"category":"c"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeDisabled(t *testing.T) {
	handler := testRouter(t, Options{})

	body := []byte(`{"category":"n01514859","clustering":"kmeans-02","embedding":"spectral"}`)
	rec := doRequest(t, handler, http.MethodPost, "/api/projects/0/analyses/spectral-analysis/summary", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	handler := testRouter(t, Options{})

	rec := doRequest(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "requests_total"))
}

func TestErrorEnvelope(t *testing.T) {
	rec := doRequest(t, testRouter(t, Options{}), http.MethodGet, "/api/projects/0/dataset/notanumber", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["errorMessage"])
}
