package job

import (
	"context"
	"errors"
	"time"

	"accmeta/src/core/extract"
)

// JobStatus defines the status of an import job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var (
	// ErrStaleJobState is returned when a status transition finds the job in
	// a status outside the expected set. The caller lost the claim and must
	// not proceed as if it owns the job.
	ErrStaleJobState = errors.New("job status changed since it was read")

	// ErrInvalidTransition is returned for a transition outside the allowed
	// status graph. This is a programming error, not an operational fault.
	ErrInvalidTransition = errors.New("job status transition not allowed")

	// ErrInvariantViolation is returned when counts are recorded twice or
	// outside an active processing attempt.
	ErrInvariantViolation = errors.New("job invariant violated")
)

// ImportJob represents one uploaded Access database file awaiting or having
// undergone metadata extraction. Jobs are created in pending by the upload
// path, mutated only by the processor, and never deleted: terminal rows stay
// behind as an audit trail.
type ImportJob struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      string     `gorm:"type:uuid;not null;index" json:"project_id"`
	AccessFilename string     `gorm:"not null" json:"access_filename"`
	StoragePath    string     `gorm:"not null" json:"storage_path"`
	StorageBucket  string     `gorm:"not null" json:"storage_bucket"`
	Status         JobStatus  `gorm:"not null;default:'pending'" json:"status"`
	FileHash       string     `json:"file_hash,omitempty"`
	QueryCount     int        `gorm:"not null;default:0" json:"query_count"`
	ModuleCount    int        `gorm:"not null;default:0" json:"module_count"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

// allowedTransitions is the complete status graph: pending → processing →
// completed|failed, plus failed → processing for an explicit re-run.
var allowedTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed},
	JobStatusFailed:     {JobStatusProcessing},
}

// TransitionAllowed reports whether from → to is part of the status graph.
func TransitionAllowed(from, to JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JobRepository defines the interface for import job persistence. The
// Transition compare-and-swap on status is the only mutual exclusion in the
// pipeline: exactly one caller wins a racing claim.
type JobRepository interface {
	// ListClaimable returns up to limit pending jobs, oldest first, without
	// mutating them. No pending jobs yields an empty slice, not an error.
	ListClaimable(ctx context.Context, limit int) ([]ImportJob, error)

	// Transition moves the job to the given status if its current status is
	// in the expected set, maintaining the started/completed timestamps.
	// Returns the updated job, ErrStaleJobState when the current status is
	// outside the expected set, or ErrInvalidTransition when the requested
	// pair is outside the status graph.
	Transition(ctx context.Context, jobID string, from []JobStatus, to JobStatus, errorMessage *string) (*ImportJob, error)

	// RecordCounts stores the extracted query/module counts. Valid exactly
	// once per processing attempt; anything else is ErrInvariantViolation.
	RecordCounts(ctx context.Context, jobID string, queryCount, moduleCount int) error
}

// ResultRepository persists one job's extracted records as a single batch.
type ResultRepository interface {
	SaveBatch(ctx context.Context, job *ImportJob, queries []extract.Query, modules []extract.Module) error
}

// ArtifactStore downloads the uploaded source file for one job.
type ArtifactStore interface {
	GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}
