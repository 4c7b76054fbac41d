package sshexec

import "github.com/ravensys/netcollect/pkg/collectorerr"

// Outcome is the per-device result of running a job's command sequence.
type Outcome struct {
	DeviceID string
	DeviceName string
	Host string
	Success bool
	Skipped bool
	DurationMS int64
	Output string
	ErrorKind collectorerr.Kind
	ErrorMessage string
	CredentialID string
}
