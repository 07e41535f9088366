// Package jobs implements the analysis job use-cases: triggering a pipeline
// run and querying job state.
package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	domain "github.com/attriscope/attriscope/internal/domain/jobs"
)

// Service implements the job use-cases. It is safe for concurrent use.
type Service struct {
	Repo      domain.Repository
	Runner    domain.Runner
	Artifacts domain.ArtifactStore
	Clock     Clock
}

// Clock abstraction so time can be fixed in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TriggerCommand starts one analysis run.
type TriggerCommand struct {
	Project  string
	Method   string
	Category string
	Params   domain.Params
}

// TriggerResult reports the outcome of one run.
type TriggerResult struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Categories  int    `json:"categories"`
	ArtifactURL string `json:"artifact_url"`
	DurationMS  int64  `json:"duration_ms"`
}

// TriggerUntilDone runs the job with context.Background() so it survives the
// HTTP request that queued it.
func (s *Service) TriggerUntilDone(cmd TriggerCommand) (TriggerResult, error) {
	return s.Trigger(context.Background(), cmd)
}

// UpdateStatus updates the status of a job row.
func (s *Service) UpdateStatus(project, id, status, errMsg string) error {
	return s.Repo.UpdateStatus(context.Background(), project, domain.JobID(id), domain.Status(status), errMsg)
}

// Trigger runs the pipeline, uploads the resulting analysis database and
// records the job row.
func (s *Service) Trigger(ctx context.Context, cmd TriggerCommand) (TriggerResult, error) {
	now := s.Clock.Now()
	uniqueID := uuid.New().String()
	id := fmt.Sprintf("%s-%s", uniqueID, cmd.Method)

	// An initial row is saved first so the job is visible while it runs.
	initial := &domain.Job{
		ID:          domain.JobID(id),
		Project:     cmd.Project,
		Method:      cmd.Method,
		Category:    cmd.Category,
		TriggeredAt: now,
		Status:      domain.StatusRunning,
	}
	if err := s.Repo.Save(ctx, initial); err != nil {
		return TriggerResult{ID: id, Status: string(domain.StatusFailed)}, err
	}

	res, err := s.Runner.Run(ctx, domain.RunRequest{
		Project:  cmd.Project,
		Method:   cmd.Method,
		Category: cmd.Category,
		Params:   cmd.Params,
	})
	if err != nil {
		_ = s.Repo.UpdateStatus(context.Background(), cmd.Project, domain.JobID(id), domain.StatusFailed, err.Error())
		return TriggerResult{ID: id, Status: string(domain.StatusFailed)}, err
	}

	key := fmt.Sprintf("%s/%s/%s", cmd.Project, cmd.Method, filepath.Base(res.LocalArtifactPath))
	url, err := s.Artifacts.UploadAndCleanup(ctx, res.LocalArtifactPath, key)
	if err != nil {
		_ = s.Repo.UpdateStatus(context.Background(), cmd.Project, domain.JobID(id), domain.StatusFailed, err.Error())
		return TriggerResult{ID: id, Status: string(domain.StatusFailed)}, err
	}

	job := &domain.Job{
		ID:          domain.JobID(id),
		Project:     cmd.Project,
		Method:      cmd.Method,
		Category:    cmd.Category,
		TriggeredAt: now,
		Status:      domain.StatusSuccess,
		Categories:  res.Categories,
		DurationMS:  res.DurationMS,
		ArtifactURL: url,
	}
	if err := s.Repo.Save(ctx, job); err != nil {
		return TriggerResult{ID: id, Status: string(job.Status)}, err
	}

	return TriggerResult{
		ID:          id,
		Status:      string(job.Status),
		Categories:  job.Categories,
		ArtifactURL: job.ArtifactURL,
		DurationMS:  job.DurationMS,
	}, nil
}

// Latest returns the N most recent jobs of a project.
func (s *Service) Latest(ctx context.Context, project string, limit int) ([]*domain.Job, error) {
	return s.Repo.Latest(ctx, project, limit)
}

// Get returns one job by ID.
func (s *Service) Get(ctx context.Context, project string, id domain.JobID) (*domain.Job, error) {
	return s.Repo.Get(ctx, project, id)
}
