package job

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"accmeta/src/core/extract"
	"accmeta/src/fsutil"
	"accmeta/src/log"
)

// Processor drives one import job through its full lifecycle: claim,
// download, extract, persist, finalize. Every fault after a successful claim
// is absorbed and recorded as a failed job status; nothing propagates to the
// scheduler.
type Processor struct {
	jobs      JobRepository
	results   ResultRepository
	artifacts ArtifactStore
	extractor extract.Extractor
	fs        fsutil.FileStore
	tmpDir    string
}

func NewProcessor(
	jobs JobRepository,
	results ResultRepository,
	artifacts ArtifactStore,
	extractor extract.Extractor,
	fs fsutil.FileStore,
	tmpDir string,
) *Processor {
	return &Processor{
		jobs:      jobs,
		results:   results,
		artifacts: artifacts,
		extractor: extractor,
		fs:        fs,
		tmpDir:    tmpDir,
	}
}

// Process claims a pending job and runs it to a terminal status. A lost
// claim is a silent no-op: another invocation already owns the job.
func (p *Processor) Process(ctx context.Context, job ImportJob) error {
	return p.run(ctx, job, JobStatusPending)
}

// Reprocess re-runs a failed job after an explicit request. The fresh
// attempt writes a new result batch under the same job id; there is no merge
// with rows from the earlier attempt.
func (p *Processor) Reprocess(ctx context.Context, job ImportJob) error {
	return p.run(ctx, job, JobStatusFailed)
}

func (p *Processor) run(ctx context.Context, job ImportJob, from JobStatus) error {
	claimed, err := p.jobs.Transition(ctx, job.ID, []JobStatus{from}, JobStatusProcessing, nil)
	if errors.Is(err, ErrStaleJobState) {
		log.Debug("job already claimed elsewhere", "job_id", job.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}

	log.Info("processing import job", "job_id", claimed.ID, "filename", claimed.AccessFilename)

	// The filename originates from the upload request; only its base name may
	// contribute to the temp path so the local copy stays inside tmpDir.
	tmpPath := filepath.Join(p.tmpDir, fmt.Sprintf("%s_%s", claimed.ID, filepath.Base(claimed.AccessFilename)))
	defer func() {
		if err := p.fs.Remove(tmpPath); err != nil {
			log.Error(err, "failed to remove temporary file", "job_id", claimed.ID, "path", tmpPath)
		}
	}()

	data, err := p.artifacts.GetObject(ctx, claimed.StorageBucket, claimed.StoragePath)
	if err != nil {
		return p.fail(ctx, claimed, err, fmt.Sprintf("download failed for %s/%s", claimed.StorageBucket, claimed.StoragePath))
	}
	if err := p.fs.WriteFile(tmpPath, data); err != nil {
		return p.fail(ctx, claimed, err, "download failed: could not write local copy")
	}

	queries, modules, err := p.extractor.Extract(ctx, tmpPath)
	if err != nil {
		return p.fail(ctx, claimed, err, "metadata extraction failed")
	}

	if err := p.results.SaveBatch(ctx, claimed, queries, modules); err != nil {
		return p.fail(ctx, claimed, err, "failed to persist extracted metadata")
	}
	if err := p.jobs.RecordCounts(ctx, claimed.ID, len(queries), len(modules)); err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			log.Error(err, "job left for manual inspection", "job_id", claimed.ID)
			return nil
		}
		return p.fail(ctx, claimed, err, "failed to persist extracted metadata")
	}
	if _, err := p.jobs.Transition(ctx, claimed.ID, []JobStatus{JobStatusProcessing}, JobStatusCompleted, nil); err != nil {
		return p.fail(ctx, claimed, err, "failed to finalize job")
	}

	log.Info("completed import job", "job_id", claimed.ID,
		"query_count", len(queries), "module_count", len(modules))
	return nil
}

// fail records a short human-readable summary on the job and moves it to
// failed. If that transition itself fails the job is left as-is for manual
// inspection; the scheduler never retries it automatically.
func (p *Processor) fail(ctx context.Context, job *ImportJob, cause error, summary string) error {
	log.Error(cause, "import job failed", "job_id", job.ID, "filename", job.AccessFilename)

	message := fmt.Sprintf("%s: %v", summary, cause)
	if _, err := p.jobs.Transition(ctx, job.ID, []JobStatus{JobStatusProcessing}, JobStatusFailed, &message); err != nil {
		log.Error(err, "failed to mark job as failed, leaving for manual inspection", "job_id", job.ID)
	}
	return nil
}
