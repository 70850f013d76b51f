package job

import (
	"context"
	"sync"
	"time"

	"accmeta/src/log"
)

// Scheduler is the polling loop of the worker. It repeatedly lists a bounded
// batch of pending jobs and dispatches them to the processor, waiting a
// configured interval between polls. Transient faults while listing or
// dispatching are logged and followed by the normal wait; the loop only
// stops when its context is cancelled.
type Scheduler struct {
	jobs        JobRepository
	processor   *Processor
	interval    time.Duration
	batchSize   int
	concurrency int
}

func NewScheduler(jobs JobRepository, processor *Processor, interval time.Duration, batchSize, concurrency int) *Scheduler {
	if batchSize <= 0 {
		batchSize = 10
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > batchSize {
		concurrency = batchSize
	}

	return &Scheduler{
		jobs:        jobs,
		processor:   processor,
		interval:    interval,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info("import worker started",
		"poll_interval", s.interval.String(), "batch_size", s.batchSize, "concurrency", s.concurrency)

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			log.Info("import worker stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	jobs, err := s.jobs.ListClaimable(ctx, s.batchSize)
	if err != nil {
		log.Error(err, "failed to list pending jobs")
		return
	}
	if len(jobs) == 0 {
		return
	}

	log.Info("found pending import jobs", "count", len(jobs))

	if s.concurrency == 1 {
		for _, j := range jobs {
			s.dispatch(ctx, j)
		}
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(j ImportJob) {
			defer wg.Done()
			defer func() { <-sem }()
			s.dispatch(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *Scheduler) dispatch(ctx context.Context, j ImportJob) {
	if err := s.processor.Process(ctx, j); err != nil {
		log.Error(err, "failed to dispatch job", "job_id", j.ID)
	}
}
