package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
)

// batchFile mirrors domain.Batch but with human-readable duration strings,
// for the same reason jobFile does.
type batchFile struct {
	Name string `yaml:"name"`
	Jobs []string `yaml:"jobs"`
	StopOnFailure bool `yaml:"stop_on_failure"`
	InterJobPause string `yaml:"inter_job_pause"`
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
}

// LoadBatch reads a batch descriptor. jobExists is consulted to validate
// every referenced job slug resolves; pass nil to skip that check.
func LoadBatch(path string, jobExists func(slug string) bool) (*domain.Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "read batch file "+path, err)
	}

	var bf batchFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "parse batch file "+path, err)
	}

	pause, err := parseDurationOrDefault(bf.InterJobPause, 0)
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, fmt.Sprintf("batch file %s: inter_job_pause", path), err)
	}

	batch := &domain.Batch{
		Name: bf.Name,
		Jobs: bf.Jobs,
		StopOnFailure: bf.StopOnFailure,
		InterJobPause: pause,
		MaxConcurrentJobs: bf.MaxConcurrentJobs,
	}
	if err := batch.Validate(jobExists); err != nil {
		return nil, err
	}
	return batch, nil
}
