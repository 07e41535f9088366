// Package httpserver wires the application services into the REST API.
package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/attriscope/attriscope/internal/application/ai"
	appjobs "github.com/attriscope/attriscope/internal/application/jobs"
	appprojects "github.com/attriscope/attriscope/internal/application/projects"
	domai "github.com/attriscope/attriscope/internal/domain/ai"
	domjobs "github.com/attriscope/attriscope/internal/domain/jobs"
	"github.com/attriscope/attriscope/internal/domain/workspace"
	"github.com/attriscope/attriscope/internal/infra/render"
	"github.com/attriscope/attriscope/internal/middleware"
)

// Options configure the router.
type Options struct {
	// Debug enables permissive CORS so a separately served frontend can
	// reach the API.
	Debug bool
	// AuthToken guards the mutating endpoints (jobs, summaries). Empty
	// disables authentication.
	AuthToken string
	// DB is used by the health endpoint; nil skips the check.
	DB *sql.DB
}

type Router struct {
	projectsSvc *appprojects.Service
	jobsSvc     *appjobs.Service
	aiSvc       *appai.Service
}

// NewRouter builds the chi handler with all API routes.
func NewRouter(projectsSvc *appprojects.Service, jobsSvc *appjobs.Service, aiSvc *appai.Service, opts Options) http.Handler {
	r := &Router{projectsSvc: projectsSvc, jobsSvc: jobsSvc, aiSvc: aiSvc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(100, 50))
	if opts.Debug {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))
	}

	checkers := map[string]middleware.HealthChecker{
		"workspace": &middleware.WorkspaceHealthChecker{
			Loaded: func() int { return projectsSvc.Workspace.Len() },
		},
	}
	if opts.DB != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: opts.DB}
	}
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	auth := middleware.BearerAuth(opts.AuthToken)

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/projects", r.wrap(r.handleListProjects))
		rt.Get("/projects/{id}", r.wrap(r.handleGetProject))
		rt.Get("/projects/{id}/dataset/{index}", r.wrap(r.handleGetSample))
		rt.Get("/projects/{id}/dataset/{index}/image", r.wrap(r.handleGetSampleImage))
		rt.Get("/projects/{id}/attributions/{index}", r.wrap(r.handleGetAttribution))
		rt.Get("/projects/{id}/attributions/{index}/heatmap", r.wrap(r.handleGetHeatmap))
		rt.Get("/projects/{id}/analyses/{method}", r.wrap(r.handleGetAnalysis))
		rt.Get("/color-maps", r.wrap(r.handleListColorMaps))
		rt.Get("/color-maps/{name}", r.wrap(r.handleColorMapPreview))

		rt.Group(func(gt chi.Router) {
			gt.Use(auth)
			gt.Post("/projects/{id}/jobs", r.wrap(r.handleTriggerJob))
			gt.Get("/projects/{id}/jobs/latest", r.wrap(r.handleLatestJobs))
			gt.Get("/projects/{id}/jobs/{jobID}", r.wrap(r.handleGetJob))
			gt.Post("/projects/{id}/analyses/{method}/summary", r.wrap(r.handleSummarize))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks client errors that map to HTTP 400.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var badReq *badRequestError
		switch {
		case errors.As(err, &badReq):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, workspace.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, err)
		case errors.Is(err, domai.ErrDisabled):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"errorMessage": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func writeImage(w http.ResponseWriter, data []byte, contentType string) error {
	w.Header().Set("Content-Type", contentType)
	_, err := w.Write(data)
	return err
}

func projectID(req *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		return 0, badRequest("invalid project ID %q", chi.URLParam(req, "id"))
	}
	return id, nil
}

func pathIndex(req *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(req, "index"))
	if err != nil {
		return 0, badRequest("invalid index %q", chi.URLParam(req, "index"))
	}
	return index, nil
}

// GET /api/projects
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, r.projectsSvc.ListProjects())
}

// GET /api/projects/{id}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	detail, err := r.projectsSvc.GetProject(id)
	if err != nil {
		return err
	}
	return writeJSON(w, detail)
}

// GET /api/projects/{id}/dataset/{index}
func (r *Router) handleGetSample(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	index, err := pathIndex(req)
	if err != nil {
		return err
	}
	sample, err := r.projectsSvc.GetSample(id, index)
	if err != nil {
		return err
	}
	return writeJSON(w, appprojects.Sample{
		Index:  sample.Index,
		Labels: sample.Labels,
		Width:  sample.Data.Width,
		Height: sample.Data.Height,
		URL:    sampleImageURL(id, index),
	})
}

// GET /api/projects/{id}/dataset/{index}/image
func (r *Router) handleGetSampleImage(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	index, err := pathIndex(req)
	if err != nil {
		return err
	}
	sample, err := r.projectsSvc.GetSample(id, index)
	if err != nil {
		return err
	}
	data, err := render.EncodeJPEG(render.SampleImage(sample.Data))
	if err != nil {
		return err
	}
	return writeImage(w, data, "image/jpeg")
}

// GET /api/projects/{id}/attributions/{index}?imageMode=input|attribution|overlay
func (r *Router) handleGetAttribution(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	index, err := pathIndex(req)
	if err != nil {
		return err
	}
	attribution, err := r.projectsSvc.GetAttribution(id, index)
	if err != nil {
		return err
	}

	imageMode := req.URL.Query().Get("imageMode")
	if imageMode == "" {
		imageMode = "input"
	}
	switch imageMode {
	case "input", "attribution", "overlay":
	default:
		return badRequest("unknown image mode %q", imageMode)
	}

	urls := make(map[string]string, len(render.ColorMaps()))
	for _, cm := range render.ColorMaps() {
		if imageMode == "input" {
			urls[cm.Name] = sampleImageURL(id, index)
		} else {
			urls[cm.Name] = fmt.Sprintf(
				"/api/projects/%d/attributions/%d/heatmap?colorMap=%s&superimpose=%t",
				id, index, cm.Name, imageMode == "overlay",
			)
		}
	}

	return writeJSON(w, appprojects.Attribution{
		Index:      attribution.Index,
		Labels:     attribution.Labels,
		Prediction: attribution.Prediction,
		Width:      attribution.Data.Width,
		Height:     attribution.Data.Height,
		URLs:       urls,
	})
}

// GET /api/projects/{id}/attributions/{index}/heatmap?colorMap=&superimpose=
func (r *Router) handleGetHeatmap(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	index, err := pathIndex(req)
	if err != nil {
		return err
	}
	attribution, err := r.projectsSvc.GetAttribution(id, index)
	if err != nil {
		return err
	}

	colorMap := req.URL.Query().Get("colorMap")
	if colorMap == "" {
		colorMap = "black-fire-red"
	}
	if !render.IsColorMap(colorMap) {
		return badRequest("the color map %q is not supported", colorMap)
	}
	superimpose := req.URL.Query().Get("superimpose") == "true"

	var img image.Image
	if superimpose {
		sample, err := r.projectsSvc.GetSample(id, attribution.Index)
		if err != nil {
			return err
		}
		img, err = render.SuperimposedHeatmap(attribution.Data, sample.Data, colorMap)
		if err != nil {
			return err
		}
	} else {
		img, err = render.Heatmap(attribution.Data, colorMap)
		if err != nil {
			return err
		}
	}
	middleware.IncrementRenders()

	data, err := render.EncodeJPEG(img)
	if err != nil {
		return err
	}
	return writeImage(w, data, "image/jpeg")
}

// GET /api/projects/{id}/analyses/{method}?category=&clustering=&embedding=
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	method := chi.URLParam(req, "method")

	query := req.URL.Query()
	category := query.Get("category")
	if category == "" {
		return badRequest("no category was specified")
	}
	clustering := query.Get("clustering")
	if clustering == "" {
		return badRequest("no clustering was specified")
	}
	embedding := query.Get("embedding")
	if embedding == "" {
		return badRequest("no embedding was specified")
	}

	analysis, err := r.projectsSvc.GetAnalysis(id, method, category, clustering, embedding)
	if err != nil {
		return err
	}
	return writeJSON(w, analysis)
}

// GET /api/color-maps
func (r *Router) handleListColorMaps(w http.ResponseWriter, req *http.Request) error {
	type colorMapWithURL struct {
		render.ColorMap
		URL string `json:"url"`
	}
	maps := render.ColorMaps()
	out := make([]colorMapWithURL, 0, len(maps))
	for _, cm := range maps {
		out = append(out, colorMapWithURL{
			ColorMap: cm,
			URL:      fmt.Sprintf("/api/color-maps/%s", cm.Name),
		})
	}
	return writeJSON(w, out)
}

// GET /api/color-maps/{name}?width=200&height=20
func (r *Router) handleColorMapPreview(w http.ResponseWriter, req *http.Request) error {
	name := chi.URLParam(req, "name")
	if !render.IsColorMap(name) {
		return badRequest("the color map %q is not supported", name)
	}

	width, height := 200, 20
	if raw := req.URL.Query().Get("width"); raw != "" {
		width, _ = strconv.Atoi(raw)
	}
	if raw := req.URL.Query().Get("height"); raw != "" {
		height, _ = strconv.Atoi(raw)
	}
	if width < 2 || width > 4096 || height < 1 || height > 4096 {
		return badRequest("invalid preview size %dx%d", width, height)
	}

	img, err := render.Preview(name, width, height)
	if err != nil {
		return err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return err
	}
	return writeImage(w, data, "image/png")
}

// POST /api/projects/{id}/jobs
func (r *Router) handleTriggerJob(w http.ResponseWriter, req *http.Request) error {
	if r.jobsSvc == nil {
		return badRequest("analysis jobs are not configured")
	}
	id, err := projectID(req)
	if err != nil {
		return err
	}
	project, err := r.projectsSvc.Workspace.ByID(id)
	if err != nil {
		return err
	}

	var body struct {
		Method        string `json:"method"`
		Category      string `json:"category"`
		Neighbors     int    `json:"neighbors"`
		EmbeddingDims int    `json:"embeddingDims"`
		ClustersMin   int    `json:"clustersMin"`
		ClustersMax   int    `json:"clustersMax"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.Method == "" {
		return badRequest("method is required")
	}

	params := domjobs.DefaultParams()
	if body.Neighbors > 0 {
		params.Neighbors = body.Neighbors
	}
	if body.EmbeddingDims > 0 {
		params.EmbeddingDims = body.EmbeddingDims
	}
	if body.ClustersMin > 0 {
		params.ClustersMin = body.ClustersMin
	}
	if body.ClustersMax > 0 {
		params.ClustersMax = body.ClustersMax
	}

	cmd := appjobs.TriggerCommand{
		Project:  project.Name,
		Method:   appprojects.StorageMethodName(body.Method),
		Category: body.Category,
		Params:   params,
	}

	// The pipeline can take minutes on large projects, so it runs in the
	// background and the job row tracks its progress.
	go func() {
		middleware.IncrementJobs()
		middleware.IncrementJobsRunning()
		defer middleware.DecrementJobsRunning()

		result, err := r.jobsSvc.TriggerUntilDone(cmd)
		if err != nil {
			fmt.Printf("background analysis error for project=%s method=%s: %v\n",
				cmd.Project, cmd.Method, err)
			middleware.IncrementJobsFailed()
			return
		}
		fmt.Printf("analysis finished: project=%s method=%s artifact=%s\n",
			cmd.Project, cmd.Method, result.ArtifactURL)
	}()

	w.WriteHeader(http.StatusAccepted)
	return writeJSON(w, map[string]any{
		"status":   string(domjobs.StatusQueued),
		"project":  project.Name,
		"method":   body.Method,
		"category": body.Category,
		"message":  "analysis started in background",
	})
}

// GET /api/projects/{id}/jobs/latest?limit=20
func (r *Router) handleLatestJobs(w http.ResponseWriter, req *http.Request) error {
	if r.jobsSvc == nil {
		return badRequest("analysis jobs are not configured")
	}
	id, err := projectID(req)
	if err != nil {
		return err
	}
	project, err := r.projectsSvc.Workspace.ByID(id)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.jobsSvc.Latest(req.Context(), project.Name, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /api/projects/{id}/jobs/{jobID}
func (r *Router) handleGetJob(w http.ResponseWriter, req *http.Request) error {
	if r.jobsSvc == nil {
		return badRequest("analysis jobs are not configured")
	}
	id, err := projectID(req)
	if err != nil {
		return err
	}
	project, err := r.projectsSvc.Workspace.ByID(id)
	if err != nil {
		return err
	}

	job, err := r.jobsSvc.Get(req.Context(), project.Name, domjobs.JobID(chi.URLParam(req, "jobID")))
	if err != nil {
		return err
	}
	return writeJSON(w, job)
}

// POST /api/projects/{id}/analyses/{method}/summary
// Body: {"category": ..., "clustering": ..., "embedding": ...}
func (r *Router) handleSummarize(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return domai.ErrDisabled
	}
	id, err := projectID(req)
	if err != nil {
		return err
	}
	method := chi.URLParam(req, "method")

	var body struct {
		Category   string `json:"category"`
		Clustering string `json:"clustering"`
		Embedding  string `json:"embedding"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.Category == "" || body.Clustering == "" || body.Embedding == "" {
		return badRequest("category, clustering and embedding are required")
	}

	analysis, err := r.projectsSvc.RawAnalysis(id, method, body.Category, body.Clustering, body.Embedding)
	if err != nil {
		return err
	}
	summary, err := r.aiSvc.Summarize(req.Context(), analysis)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write([]byte(summary))
	return err
}

func sampleImageURL(projectID, index int) string {
	return fmt.Sprintf("/api/projects/%d/dataset/%d/image", projectID, index)
}
