package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresJobRepository struct {
	db *gorm.DB
}

func NewPostgresJobRepository(db *gorm.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// Create inserts a new pending job for an uploaded file.
func (r *PostgresJobRepository) Create(ctx context.Context, projectID, filename, storagePath, storageBucket, fileHash string) (*ImportJob, error) {
	job := &ImportJob{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		AccessFilename: filename,
		StoragePath:    storagePath,
		StorageBucket:  storageBucket,
		Status:         JobStatusPending,
		FileHash:       fileHash,
	}

	result := r.db.WithContext(ctx).Create(job)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create import job: %w", result.Error)
	}

	return job, nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id string) (*ImportJob, error) {
	var job ImportJob
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get import job: %w", result.Error)
	}

	return &job, nil
}

// ListByProject returns a project's jobs, newest first.
func (r *PostgresJobRepository) ListByProject(ctx context.Context, projectID string) ([]ImportJob, error) {
	var jobs []ImportJob
	result := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", result.Error)
	}

	return jobs, nil
}

func (r *PostgresJobRepository) ListClaimable(ctx context.Context, limit int) ([]ImportJob, error) {
	var jobs []ImportJob
	result := r.db.WithContext(ctx).
		Where("status = ?", JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", result.Error)
	}

	return jobs, nil
}

func (r *PostgresJobRepository) Transition(ctx context.Context, jobID string, from []JobStatus, to JobStatus, errorMessage *string) (*ImportJob, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("%w: empty expected status set", ErrInvalidTransition)
	}
	for _, f := range from {
		if !TransitionAllowed(f, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f, to)
		}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":        to,
		"error_message": errorMessage,
	}
	switch to {
	case JobStatusProcessing:
		// Entering a new attempt: any trace of a prior attempt is reset so
		// the per-attempt invariants hold again.
		updates["started_at"] = now
		updates["completed_at"] = nil
		updates["query_count"] = 0
		updates["module_count"] = 0
	case JobStatusCompleted, JobStatusFailed:
		updates["completed_at"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&ImportJob{}).
		Where("id = ? AND status IN ?", jobID, from).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStaleJobState
	}

	var job ImportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload job after transition: %w", err)
	}

	return &job, nil
}

func (r *PostgresJobRepository) RecordCounts(ctx context.Context, jobID string, queryCount, moduleCount int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job ImportJob
		if err := tx.First(&job, "id = ?", jobID).Error; err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		if job.Status != JobStatusProcessing {
			return fmt.Errorf("%w: counts recorded outside an active attempt (status %s)", ErrInvariantViolation, job.Status)
		}
		if job.QueryCount != 0 || job.ModuleCount != 0 {
			return fmt.Errorf("%w: counts already recorded for job %s", ErrInvariantViolation, jobID)
		}

		result := tx.Model(&ImportJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"query_count":  queryCount,
			"module_count": moduleCount,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to record counts: %w", result.Error)
		}
		return nil
	})
}
