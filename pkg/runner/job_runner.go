package runner

import (
	"context"
	"time"

	"github.com/ravensys/netcollect/pkg/capture"
	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/credential"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/metrics"
	"github.com/ravensys/netcollect/pkg/progress"
	"github.com/ravensys/netcollect/pkg/resolver"
	"github.com/ravensys/netcollect/pkg/sshexec"
	"github.com/ravensys/netcollect/pkg/storage"
	"github.com/ravensys/netcollect/pkg/validate"
)

// JobRunner executes one job: resolve devices, run the SSH pool, validate
// and persist each device's output, and commit the run's history record.
type JobRunner struct {
	resolver *resolver.Resolver
	credCache *credential.Cache
	validator *validate.Pipeline
	writer *capture.Writer
	history storage.HistoryStore
	transport sshexec.Transport
	sink progress.Sink
}

// New returns a JobRunner. transport and sink may be nil; sshexec.Pool
// supplies its production defaults in that case.
func New(inventory storage.InventoryStore, credCache *credential.Cache, templates storage.TemplateStore, history storage.HistoryStore, captureRoot string, transport sshexec.Transport, sink progress.Sink) *JobRunner {
	return &JobRunner{
		resolver: resolver.New(inventory),
		credCache: credCache,
		validator: validate.New(templates),
		writer: capture.New(captureRoot, history),
		history: history,
		transport: transport,
		sink: sink,
	}
}

// Run executes job once and returns its history record (already committed)
// and the per-device outcomes from the SSH pool. A non-nil error means
// either the job never reached device execution (ConfigError,
// InventoryEmpty, or a failure to create the run record), or the devices
// ran but the final update of the run record failed (PersistenceError).
func (jr *JobRunner) Run(ctx context.Context, job *domain.Job, overrideCredentialID string) (*domain.Run, []sshexec.Outcome, error) {
	logger := log.WithJob(job.Slug)

	if err := job.Validate(); err != nil {
		return nil, nil, err
	}

	devices, err := jr.resolver.Resolve(job.Filter)
	if err != nil {
		return nil, nil, err
	}

	startedAt := time.Now()
	run, err := capture.StartRun(jr.history, job.Slug, len(devices), startedAt)
	if err != nil {
		return nil, nil, err
	}

	if len(devices) == 0 {
		inventoryErr := collectorerr.New(collectorerr.InventoryEmpty, "no devices matched filter for job "+job.Slug)
		if cerr := capture.AbortRun(jr.history, run, time.Now(), inventoryErr.Error()); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to record aborted run")
		}
		return run, nil, inventoryErr
	}

	timer := metrics.NewTimer()
	metrics.DevicesInFlight.WithLabelValues(job.Slug).Set(float64(len(devices)))
	defer metrics.DevicesInFlight.WithLabelValues(job.Slug).Set(0)

	credResolver := credential.NewResolver(jr.credCache)
	pool := sshexec.New(job.Commands, job.Execution, credResolver, jr.transport, jr.sink)
	outcomes := pool.Run(ctx, devices, overrideCredentialID)
	timer.ObserveDurationVec(metrics.RunDuration, job.Slug)

	success, failed, skipped := jr.persistOutcomes(run, job, devices, outcomes)

	if err := capture.CloseRun(jr.history, run, time.Now(), success, failed, skipped); err != nil {
		logger.Error().Err(err).Msg("failed to close run record")
		return run, outcomes, err
	}

	logger.Info().
		Str("run_id", run.ID).
		Int("success", success).
		Int("failed", failed).
		Int("skipped", skipped).
		Str("status", string(run.Status)).
		Msg("job run complete")

	return run, outcomes, nil
}

// persistOutcomes classifies and persists every device outcome, returning
// the final success/failed/skipped tallies. Validation and persistence
// failures for a single device never abort the run.
func (jr *JobRunner) persistOutcomes(run *domain.Run, job *domain.Job, devices []*domain.Device, outcomes []sshexec.Outcome) (success, failed, skipped int) {
	for i, outcome := range outcomes {
		device := devices[i]

		if outcome.Skipped {
			skipped++
			metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "skipped").Inc()
			continue
		}
		if !outcome.Success {
			failed++
			metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "failed").Inc()
			if outcome.ErrorKind != "" {
				metrics.DeviceErrorsTotal.WithLabelValues(job.Slug, string(outcome.ErrorKind)).Inc()
			}
			continue
		}

		passed, scorePtr, save, err := jr.evaluateValidation(job, outcome)
		if err != nil {
			log.WithDevice(device.Name).Error().Err(err).Msg("validation pipeline read failed")
			failed++
			metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "failed").Inc()
			continue
		}
		if scorePtr != nil {
			metrics.ValidationScore.WithLabelValues(job.Slug).Observe(float64(*scorePtr))
		}
		if save {
			captureBytes := []byte(outcome.Output)
			if _, err := jr.writer.Save(run, job.Storage, device, job.CaptureKind, captureBytes, scorePtr, time.Now()); err != nil {
				log.WithDevice(device.Name).Error().Err(err).Msg("capture persistence failed")
				failed++
				metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "failed").Inc()
				continue
			}
			metrics.CaptureBytesTotal.WithLabelValues(job.Slug).Add(float64(len(captureBytes)))
		}

		if job.Validation.Enabled && !passed {
			// Open Question #1 (DESIGN.md): save-on-fail still counts as
			// skipped, never success, even though the file was written.
			skipped++
			metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "skipped").Inc()
			continue
		}
		success++
		metrics.DeviceOutcomesTotal.WithLabelValues(job.Slug, "success").Inc()
	}
	return success, failed, skipped
}

// evaluateValidation runs the validation pipeline when the job opts in and
// reports whether the device's output should be treated as passed, the
// score to attach to the capture row (nil when validation is disabled),
// and whether the capture should be written at all.
func (jr *JobRunner) evaluateValidation(job *domain.Job, outcome sshexec.Outcome) (passed bool, score *int, save bool, err error) {
	if !job.Validation.Enabled {
		return true, nil, true, nil
	}

	result, err := jr.validator.Validate(job.Validation.TemplateFilter, job.CaptureKind, outcome.Output, job.Validation.MinScore)
	if err != nil {
		return false, nil, false, collectorerr.Wrap(collectorerr.PersistenceError, "read template store", err)
	}

	s := result.Score
	if result.Status == validate.StatusPassed {
		return true, &s, true, nil
	}
	return false, &s, job.Validation.SaveOnFail, nil
}
