package domain

import "time"

// CredentialTestResult records the outcome of the most recent connect-only
// discovery probe against a device.
type CredentialTestResult string

const (
	CredentialTestUnknown CredentialTestResult = ""
	CredentialTestSuccess CredentialTestResult = "success"
	CredentialTestFailed CredentialTestResult = "failed"
)

// Platform carries the driver hint (prompt/paging conventions) and the
// manufacturer link used by vendor-substring matching.
type Platform struct {
	ID string
	Name string
	Manufacturer string
	DriverHint string // e.g. "cisco_ios", "arista_eos", "linux"
	PagingDisable string // platform-default paging-disable command, if any
}

// Device is a single contactable endpoint in the inventory.
type Device struct {
	ID string
	Name string
	PrimaryAddress string
	Platform Platform
	SiteID string
	RoleID string
	Status DeviceStatus
	PinnedCredentialID string
	LastCredentialTestAt time.Time
	LastCredentialTestResult CredentialTestResult
}

// Eligible reports whether the device can be contacted at all: it must have
// a primary address and match the requested status.
func (d *Device) Eligible(wantStatus DeviceStatus) bool {
	if d.PrimaryAddress == "" {
		return false
	}
	return d.Status == wantStatus
}
