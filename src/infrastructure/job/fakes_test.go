package job_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"accmeta/src/core/extract"
	jobctrl "accmeta/src/infrastructure/job"
)

// memoryJobRepo mirrors the compare-and-swap semantics of the postgres
// repository so processor and scheduler behavior can be tested without a
// database.
type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*jobctrl.ImportJob

	listErr   error
	countsErr error
}

func newMemoryJobRepo(jobs ...jobctrl.ImportJob) *memoryJobRepo {
	r := &memoryJobRepo{jobs: make(map[string]*jobctrl.ImportJob)}
	for _, j := range jobs {
		stored := j
		r.jobs[j.ID] = &stored
	}
	return r
}

func (r *memoryJobRepo) get(id string) jobctrl.ImportJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.jobs[id]
}

func (r *memoryJobRepo) ListClaimable(ctx context.Context, limit int) ([]jobctrl.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		err := r.listErr
		r.listErr = nil
		return nil, err
	}

	var pending []jobctrl.ImportJob
	for _, j := range r.jobs {
		if j.Status == jobctrl.JobStatusPending && len(pending) < limit {
			pending = append(pending, *j)
		}
	}
	return pending, nil
}

func (r *memoryJobRepo) Transition(ctx context.Context, jobID string, from []jobctrl.JobStatus, to jobctrl.JobStatus, errorMessage *string) (*jobctrl.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range from {
		if !jobctrl.TransitionAllowed(f, to) {
			return nil, fmt.Errorf("%w: %s -> %s", jobctrl.ErrInvalidTransition, f, to)
		}
	}

	j, ok := r.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}

	matched := false
	for _, f := range from {
		if j.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return nil, jobctrl.ErrStaleJobState
	}

	now := time.Now().UTC()
	j.Status = to
	j.ErrorMessage = errorMessage
	switch to {
	case jobctrl.JobStatusProcessing:
		j.StartedAt = &now
		j.CompletedAt = nil
		j.QueryCount = 0
		j.ModuleCount = 0
	case jobctrl.JobStatusCompleted, jobctrl.JobStatusFailed:
		j.CompletedAt = &now
	}

	updated := *j
	return &updated, nil
}

func (r *memoryJobRepo) RecordCounts(ctx context.Context, jobID string, queryCount, moduleCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countsErr != nil {
		return r.countsErr
	}

	j, ok := r.jobs[jobID]
	if !ok {
		return errors.New("job not found")
	}
	if j.Status != jobctrl.JobStatusProcessing {
		return fmt.Errorf("%w: counts recorded outside an active attempt (status %s)", jobctrl.ErrInvariantViolation, j.Status)
	}
	if j.QueryCount != 0 || j.ModuleCount != 0 {
		return fmt.Errorf("%w: counts already recorded for job %s", jobctrl.ErrInvariantViolation, jobID)
	}

	j.QueryCount = queryCount
	j.ModuleCount = moduleCount
	return nil
}

type savedBatch struct {
	jobID   string
	queries []extract.Query
	modules []extract.Module
}

type memoryResultRepo struct {
	mu      sync.Mutex
	batches []savedBatch
	saveErr error
}

func (r *memoryResultRepo) SaveBatch(ctx context.Context, job *jobctrl.ImportJob, queries []extract.Query, modules []extract.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.batches = append(r.batches, savedBatch{jobID: job.ID, queries: queries, modules: modules})
	return nil
}

func (r *memoryResultRepo) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type memoryArtifactStore struct {
	objects map[string][]byte
	err     error
}

func (s *memoryArtifactStore) GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.objects[bucketName+"/"+objectName]
	if !ok {
		return nil, fmt.Errorf("object not found: %s/%s", bucketName, objectName)
	}
	return data, nil
}

type stubExtractor struct {
	queries []extract.Query
	modules []extract.Module
	err     error

	mu    sync.Mutex
	paths []string
}

func (e *stubExtractor) Extract(ctx context.Context, localPath string) ([]extract.Query, []extract.Module, error) {
	e.mu.Lock()
	e.paths = append(e.paths, localPath)
	e.mu.Unlock()
	if e.err != nil {
		return nil, nil, e.err
	}
	return e.queries, e.modules, nil
}
