package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/metrics"
)

// BatchRunner composes a batch's ordered job list into one aggregate run.
// Job-level concurrency is capped; when the cap is 1 (the default),
// jobs run in the batch's natural order and stop-on-failure is exact. A
// cap greater than 1 trades strict ordering for throughput.
type BatchRunner struct {
	jobRunner *JobRunner
}

// NewBatchRunner returns a BatchRunner driving jobs through jobRunner.
func NewBatchRunner(jobRunner *JobRunner) *BatchRunner {
	return &BatchRunner{jobRunner: jobRunner}
}

// Run executes batch's jobs against the provided job definitions, keyed by
// slug. Batch.Validate rejects unknown slugs when the batch is loaded; a
// slug that still has no entry in jobs fails its own slot with "job
// definition not found" while the other jobs run as usual.
func (br *BatchRunner) Run(ctx context.Context, batch *domain.Batch, jobs map[string]*domain.Job) (*domain.BatchResult, error) {
	logger := log.WithBatch(batch.Name)
	start := time.Now()

	result := &domain.BatchResult{
		Jobs: make([]domain.JobOutcome, len(batch.Jobs)),
	}
	var mu sync.Mutex

	maxConcurrent := batch.MaxConcurrentJobs
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	if maxConcurrent == 1 {
		br.runSequential(ctx, batch, jobs, result, &mu)
	} else {
		br.runBounded(ctx, batch, jobs, result, &mu, maxConcurrent)
	}

	result.WallTime = time.Since(start)
	for _, jo := range result.Jobs {
		switch {
		case jo.Cancelled:
			result.JobsCancelled++
		case jo.Status == domain.RunStatusSuccess:
			result.JobsSucceeded++
			result.JobsAttempted++
		case jo.Status == domain.RunStatusPartial:
			result.JobsPartial++
			result.JobsAttempted++
		case jo.Status == domain.RunStatusFailed:
			result.JobsFailed++
			result.JobsAttempted++
		}
	}

	logger.Info().
		Int("attempted", result.JobsAttempted).
		Int("succeeded", result.JobsSucceeded).
		Int("partial", result.JobsPartial).
		Int("failed", result.JobsFailed).
		Int("cancelled", result.JobsCancelled).
		Dur("wall_time", result.WallTime).
		Msg("batch complete")

	return result, nil
}

// runSequential runs jobs strictly in order, each one's history record
// fully committed before the next starts.
// stop-on-failure marks every remaining job cancelled without starting it.
func (br *BatchRunner) runSequential(ctx context.Context, batch *domain.Batch, jobs map[string]*domain.Job, result *domain.BatchResult, mu *sync.Mutex) {
	stopped := false
	for i, slug := range batch.Jobs {
		if stopped {
			result.Jobs[i] = domain.JobOutcome{Slug: slug, Cancelled: true}
			continue
		}

		outcome := br.runOne(ctx, jobs[slug], result, mu)
		result.Jobs[i] = outcome

		if batch.StopOnFailure && outcome.Status == domain.RunStatusFailed {
			stopped = true
		}
		if i < len(batch.Jobs)-1 && !stopped && batch.InterJobPause > 0 {
			select {
			case <-time.After(batch.InterJobPause):
			case <-ctx.Done():
				stopped = true
			}
		}
	}
}

// runBounded runs up to maxConcurrent jobs concurrently. stop-on-failure
// under concurrency is best-effort: once a failure is observed, jobs not
// yet started are cancelled, but jobs already in flight are allowed to
// finish; strict ordering only holds in sequential mode.
func (br *BatchRunner) runBounded(ctx context.Context, batch *domain.Batch, jobs map[string]*domain.Job, result *domain.BatchResult, mu *sync.Mutex, maxConcurrent int) {
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var stopMu sync.Mutex
	var stopped bool

	g, gctx := errgroup.WithContext(ctx)
	for i, slug := range batch.Jobs {
		i, slug := i, slug
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				result.Jobs[i] = domain.JobOutcome{Slug: slug, Cancelled: true}
				return nil
			}
			defer sem.Release(1)

			stopMu.Lock()
			alreadyStopped := stopped
			stopMu.Unlock()
			if alreadyStopped {
				result.Jobs[i] = domain.JobOutcome{Slug: slug, Cancelled: true}
				return nil
			}

			outcome := br.runOne(gctx, jobs[slug], result, mu)
			result.Jobs[i] = outcome

			if batch.StopOnFailure && outcome.Status == domain.RunStatusFailed {
				stopMu.Lock()
				stopped = true
				stopMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

// runOne executes a single job and folds its device totals into result
// under mu, since runBounded may call this from multiple goroutines.
func (br *BatchRunner) runOne(ctx context.Context, job *domain.Job, result *domain.BatchResult, mu *sync.Mutex) domain.JobOutcome {
	if job == nil {
		return domain.JobOutcome{Status: domain.RunStatusFailed, Error: "job definition not found"}
	}

	run, _, err := br.jobRunner.Run(ctx, job, "")
	if run == nil {
		metrics.BatchJobsTotal.WithLabelValues(string(domain.RunStatusFailed)).Inc()
		return domain.JobOutcome{Slug: job.Slug, Status: domain.RunStatusFailed, Error: err.Error()}
	}

	mu.Lock()
	result.TotalDevices += run.TotalDevices
	result.TotalSuccess += run.Success
	result.TotalFailed += run.Failed
	result.TotalSkipped += run.Skipped
	mu.Unlock()

	metrics.BatchJobsTotal.WithLabelValues(string(run.Status)).Inc()

	outcome := domain.JobOutcome{Slug: job.Slug, RunID: run.ID, Status: run.Status}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}
