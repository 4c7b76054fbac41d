// Package domain holds the record types the collection core operates on:
// jobs, devices, credentials, templates, runs, captures, and batches.
package domain

import (
	"time"

	"github.com/ravensys/netcollect/pkg/collectorerr"
)

func errConfig(msg string) error {
	return collectorerr.New(collectorerr.ConfigError, msg)
}

// DeviceStatus is the lifecycle status a device filter can match against.
type DeviceStatus string

const (
	DeviceStatusActive DeviceStatus = "active"
	DeviceStatusDecommission DeviceStatus = "decommissioned"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

// DeviceFilter selects a concrete device set from the inventory.
type DeviceFilter struct {
	VendorSubstring string // case-insensitive substring against manufacturer
	SiteID string
	RoleID string
	PlatformID string
	NameRegex string
	Status DeviceStatus // defaults to DeviceStatusActive when empty
	MaxDevices int // 0 = unbounded
}

// ValidationPolicy controls the validation pipeline for a job.
type ValidationPolicy struct {
	Enabled bool
	TemplateFilter string // e.g. "cisco_ios_show_ip_arp"
	MinScore int
	SaveOnFail bool
}

// ExecutionPolicy controls the SSH execution pool for a job.
type ExecutionPolicy struct {
	MaxDevicesInFlight int
	PerDeviceTimeout time.Duration
	InterCommandPause time.Duration
	// TimeoutRetries is read from the job descriptor and carried here, but
	// the execution pool does not consult it: a device is declared failed
	// on its first Timeout whatever this value is (see DESIGN.md Open
	// Question #2).
	TimeoutRetries int
}

// StorageLayout controls where and how a job's captures are written.
type StorageLayout struct {
	OutputSubdir string
	FilenameTemplate string // recognizes {device_name} {device_id} {timestamp}
}

// Commands is the ordered command sequence a job sends to a device.
type Commands struct {
	PagingDisablePrelude string // optional; non-fatal if it errors
	Primary []string
}

// Job is the declarative unit of collection.
type Job struct {
	ID int64
	Slug string // ASCII kebab, unique
	Enabled bool
	CaptureKind string
	VendorHint string
	Commands Commands
	Filter DeviceFilter
	Validation ValidationPolicy
	Execution ExecutionPolicy
	Storage StorageLayout
}

// Validate checks the job-level invariants and returns a
// ConfigError-flavored error if any are violated. It does not touch the
// inventory; device-set emptiness is the resolver's concern.
func (j *Job) Validate() error {
	if j.Slug == "" {
		return errConfig("job slug must not be empty")
	}
	if !isKebabASCII(j.Slug) {
		return errConfig("job slug must be ASCII kebab-case: " + j.Slug)
	}
	if len(j.Commands.Primary) == 0 {
		return errConfig("job command must not be empty")
	}
	if j.Execution.MaxDevicesInFlight < 1 {
		return errConfig("max-workers must be >= 1")
	}
	if j.Execution.PerDeviceTimeout <= 0 {
		return errConfig("per-device timeout must be > 0")
	}
	if j.Validation.Enabled && j.Validation.TemplateFilter == "" {
		return errConfig("validation enabled but template filter is empty")
	}
	return nil
}

func isKebabASCII(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
