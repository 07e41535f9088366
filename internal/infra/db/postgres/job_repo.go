package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/attriscope/attriscope/internal/domain/jobs"
)

type JobRepository struct{ db *sql.DB }

func NewJobRepository(db *sql.DB) *JobRepository { return &JobRepository{db: db} }

// Save insert/update job record
func (r *JobRepository) Save(ctx context.Context, j *domain.Job) error {
	const q = `
INSERT INTO analysis_jobs
(id, project, method, category, triggered_at, status,
 categories, duration_ms, artifact_url, error)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 categories = EXCLUDED.categories,
 duration_ms = EXCLUDED.duration_ms,
 artifact_url = EXCLUDED.artifact_url,
 error = EXCLUDED.error;`

	triggered := j.TriggeredAt
	if triggered.IsZero() {
		triggered = time.Now()
	}
	status := j.Status
	if status == "" {
		status = domain.StatusQueued
	}

	_, err := r.db.ExecContext(ctx, q,
		j.ID, j.Project, j.Method, j.Category, triggered, status,
		j.Categories, j.DurationMS, j.ArtifactURL, j.Error,
	)
	return err
}

// Get by project + ID
func (r *JobRepository) Get(ctx context.Context, project string, id domain.JobID) (*domain.Job, error) {
	const q = `
SELECT id, project, method, category, triggered_at, status,
       categories, duration_ms, artifact_url, error
FROM analysis_jobs
WHERE project=$1 AND id=$2
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, project, id)
	return scanJob(row.Scan)
}

// Latest jobs per project
func (r *JobRepository) Latest(ctx context.Context, project string, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, project, method, category, triggered_at, status,
       categories, duration_ms, artifact_url, error
FROM analysis_jobs
WHERE project=$1 ORDER BY triggered_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// UpdateStatus updates the status and error columns of one job
func (r *JobRepository) UpdateStatus(ctx context.Context, project string, id domain.JobID, status domain.Status, errMsg string) error {
	const q = `
UPDATE analysis_jobs
SET status = $1, error = $2
WHERE project = $3 AND id = $4;`
	_, err := r.db.ExecContext(ctx, q, status, errMsg, project, id)
	return err
}

func scanJob(scan func(dest ...any) error) (*domain.Job, error) {
	var j domain.Job
	if err := scan(
		&j.ID, &j.Project, &j.Method, &j.Category, &j.TriggeredAt, &j.Status,
		&j.Categories, &j.DurationMS, &j.ArtifactURL, &j.Error,
	); err != nil {
		return nil, err
	}
	return &j, nil
}
