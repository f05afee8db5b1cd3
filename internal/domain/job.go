package domain

import "time"

// JobStatus is the lifecycle state of an import run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportJob records one template import run and its counters.
type ImportJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	SourceID       string     `gorm:"type:text;not null;index" json:"source_id"`
	Status         JobStatus  `gorm:"type:text;not null" json:"status"`
	TotalItems     int        `json:"total_items"`
	ProcessedItems int        `json:"processed_items"`
	SkippedItems   int        `json:"skipped_items"`
	FailedItems    int        `json:"failed_items"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ImportJob.
func (ImportJob) TableName() string {
	return "import_jobs"
}

// Finish stamps the completion time and the final status. A non-nil err
// marks the job failed.
func (j *ImportJob) Finish(at time.Time, err error) {
	j.CompletedAt = &at
	if err != nil {
		j.Status = JobStatusFailed
		j.ErrorLog = err.Error()
		return
	}
	j.Status = JobStatusCompleted
}
