package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
)

// jobFile is the on-disk YAML shape for a job descriptor. Durations
// are plain strings ("30s", "2m") rather than domain.Job's native
// time.Duration, since yaml.v3 has no notion of Go duration syntax and
// raw nanoseconds would be unreadable in a hand-edited file. Unknown keys
// are ignored rather than rejected, by yaml.v3's default
// decode-into-struct behavior.
type jobFile struct {
	Version int `yaml:"version"`
	Slug string `yaml:"slug"`
	Enabled *bool `yaml:"enabled"`
	CaptureKind string `yaml:"capture_kind"`
	VendorHint string `yaml:"vendor_hint"`

	Commands struct {
		PagingDisablePrelude string `yaml:"paging_disable_prelude"`
		Primary []string `yaml:"primary"`
	} `yaml:"commands"`

	Filter struct {
		VendorSubstring string `yaml:"vendor_substring"`
		SiteID string `yaml:"site_id"`
		RoleID string `yaml:"role_id"`
		PlatformID string `yaml:"platform_id"`
		NameRegex string `yaml:"name_regex"`
		Status string `yaml:"status"`
		MaxDevices int `yaml:"max_devices"`
	} `yaml:"filter"`

	Validation struct {
		Enabled bool `yaml:"enabled"`
		TemplateFilter string `yaml:"template_filter"`
		MinScore int `yaml:"min_score"`
		SaveOnFail bool `yaml:"save_on_fail"`
	} `yaml:"validation"`

	Execution struct {
		MaxDevicesInFlight int `yaml:"max_devices_in_flight"`
		PerDeviceTimeout string `yaml:"per_device_timeout"`
		InterCommandPause string `yaml:"inter_command_pause"`
		TimeoutRetries int `yaml:"timeout_retries"`
	} `yaml:"execution"`

	Storage struct {
		OutputSubdir string `yaml:"output_subdir"`
		FilenameTemplate string `yaml:"filename_template"`
	} `yaml:"storage"`
}

// LoadJob reads and validates a single job descriptor.
func LoadJob(path string) (*domain.Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "read job file "+path, err)
	}

	var jf jobFile
	if err := yaml.Unmarshal(raw, &jf); err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "parse job file "+path, err)
	}

	job, err := jf.toDomain()
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.ConfigError, "job file "+path, err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// LoadJobsDir reads every *.yaml/*.yml file in dir into a map keyed by
// job slug. A job that fails to parse or validate is reported with its
// path, but does not stop the rest of the directory from loading.
func LoadJobsDir(dir string) (map[string]*domain.Job, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{collectorerr.Wrap(collectorerr.ConfigError, "read jobs dir "+dir, err)}
	}

	jobs := make(map[string]*domain.Job)
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		job, err := LoadJob(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs[job.Slug] = job
	}
	return jobs, errs
}

func (jf jobFile) toDomain() (*domain.Job, error) {
	perDeviceTimeout, err := parseDurationOrDefault(jf.Execution.PerDeviceTimeout, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("execution.per_device_timeout: %w", err)
	}
	interCommandPause, err := parseDurationOrDefault(jf.Execution.InterCommandPause, 0)
	if err != nil {
		return nil, fmt.Errorf("execution.inter_command_pause: %w", err)
	}

	enabled := true
	if jf.Enabled != nil {
		enabled = *jf.Enabled
	}

	maxDevicesInFlight := jf.Execution.MaxDevicesInFlight
	if maxDevicesInFlight == 0 {
		maxDevicesInFlight = 4
	}

	return &domain.Job{
		Slug: jf.Slug,
		Enabled: enabled,
		CaptureKind: jf.CaptureKind,
		VendorHint: jf.VendorHint,
		Commands: domain.Commands{
			PagingDisablePrelude: jf.Commands.PagingDisablePrelude,
			Primary: jf.Commands.Primary,
		},
		Filter: domain.DeviceFilter{
			VendorSubstring: jf.Filter.VendorSubstring,
			SiteID: jf.Filter.SiteID,
			RoleID: jf.Filter.RoleID,
			PlatformID: jf.Filter.PlatformID,
			NameRegex: jf.Filter.NameRegex,
			Status: domain.DeviceStatus(jf.Filter.Status),
			MaxDevices: jf.Filter.MaxDevices,
		},
		Validation: domain.ValidationPolicy{
			Enabled: jf.Validation.Enabled,
			TemplateFilter: jf.Validation.TemplateFilter,
			MinScore: jf.Validation.MinScore,
			SaveOnFail: jf.Validation.SaveOnFail,
		},
		Execution: domain.ExecutionPolicy{
			MaxDevicesInFlight: maxDevicesInFlight,
			PerDeviceTimeout: perDeviceTimeout,
			InterCommandPause: interCommandPause,
			TimeoutRetries: jf.Execution.TimeoutRetries,
		},
		Storage: domain.StorageLayout{
			OutputSubdir: jf.Storage.OutputSubdir,
			FilenameTemplate: jf.Storage.FilenameTemplate,
		},
	}, nil
}

func parseDurationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
