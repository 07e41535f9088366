package jobs

import "time"

// JobID identifies one analysis run.
type JobID string

// Status enum
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Job is one server-side spectral analysis run over a project's
// attributions. The resulting analysis database is uploaded to object
// storage and its URL recorded here.
type Job struct {
	ID          JobID     `json:"id"`
	Project     string    `json:"project"`
	Method      string    `json:"method"`
	Category    string    `json:"category,omitempty"` // empty = every category
	TriggeredAt time.Time `json:"triggered_at"`
	Status      Status    `json:"status"`
	Categories  int       `json:"categories"`
	DurationMS  int64     `json:"duration_ms"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	Error       string    `json:"error,omitempty"`
}
