package jobs

import "context"

// Repository port for persisting job rows.
type Repository interface {
	Save(ctx context.Context, j *Job) error
	Get(ctx context.Context, project string, id JobID) (*Job, error)
	Latest(ctx context.Context, project string, limit int) ([]*Job, error)
	UpdateStatus(ctx context.Context, project string, id JobID, status Status, errMsg string) error
}

// Runner port for executing the analysis pipeline.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ArtifactStore port for uploading finished analysis databases.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
