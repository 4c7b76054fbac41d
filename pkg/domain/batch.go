package domain

import "time"

// Batch is an ordered composition of jobs executed as a single operator
// action. It is defined as a persistent descriptor (YAML file,
// see pkg/config) and executed ephemerally by pkg/runner.
type Batch struct {
	Name string `yaml:"name"`
	Jobs []string `yaml:"jobs"`
	StopOnFailure bool `yaml:"stop_on_failure"`
	InterJobPause time.Duration `yaml:"inter_job_pause"`
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
}

// Validate checks the batch-level invariants: the job list must be
// non-empty, and (given a resolver function) every reference must resolve
// to a known job.
func (b *Batch) Validate(jobExists func(slug string) bool) error {
	if len(b.Jobs) == 0 {
		return errConfig("batch " + b.Name + " has no jobs")
	}
	for _, slug := range b.Jobs {
		if jobExists != nil && !jobExists(slug) {
			return errConfig("batch " + b.Name + " references unknown job " + slug)
		}
	}
	return nil
}

// JobOutcome is how a single job fared within a batch run.
type JobOutcome struct {
	Slug string
	RunID string
	Status RunStatus
	Cancelled bool
	Error string
}

// BatchResult is the aggregate outcome of a batch execution.
type BatchResult struct {
	JobsAttempted int
	JobsSucceeded int
	JobsPartial int
	JobsFailed int
	JobsCancelled int
	TotalDevices int
	TotalSuccess int
	TotalFailed int
	TotalSkipped int
	WallTime time.Duration
	Jobs []JobOutcome
}
