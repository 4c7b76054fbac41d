// Package storage implements the bucket-per-entity embedded store backing
// the inventory read-model, secret store, template store, and history
// store: one bbolt.DB, one bucket per entity kind, values JSON-marshaled.
//
// The four store interfaces below are each a narrow slice of the single
// concrete BoltStore so that pkg/resolver, pkg/credential, pkg/validate, and
// pkg/capture depend only on the methods they actually call.
package storage

import (
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
)

// InventoryStore is the read model the device resolver queries.
// Its only write is UpdateDeviceCredentialTest; inventory CRUD is an
// external collaborator.
type InventoryStore interface {
	ListDevices() ([]*domain.Device, error)
	GetDevice(id string) (*domain.Device, error)
	// UpdateDeviceCredentialTest records a discovery-mode probe result.
	// It is the one inventory write the core performs.
	UpdateDeviceCredentialTest(deviceID string, result domain.CredentialTestResult, at time.Time, workingCredentialID string) error
}

// SecretStore holds the encrypted credential rows and the vault metadata
// (salt + verifier) needed to unlock them.
type SecretStore interface {
	VaultMeta() (salt, verifier []byte, ok bool, err error)
	SaveVaultMeta(salt, verifier []byte) error

	CreateCredential(c *domain.Credential) error
	GetCredential(id string) (*domain.Credential, error)
	ListCredentials() ([]*domain.Credential, error)
	DefaultCredential() (*domain.Credential, error)
}

// TemplateStore is the read-only structured-text extraction rule table.
type TemplateStore interface {
	ListTemplates() ([]*domain.Template, error)
	GetTemplate(identifier string) (*domain.Template, error)
}

// HistoryStore holds run and capture rows. The controller is the only
// writer; workers never call this directly.
type HistoryStore interface {
	CreateRun(r *domain.Run) error
	UpdateRun(r *domain.Run) error
	GetRun(id string) (*domain.Run, error)
	// GetRunByNaturalKey resolves a run by treating (job slug, started-at)
	// as its natural identity, for callers that never captured the id.
	GetRunByNaturalKey(jobSlug string, startedAt time.Time) (*domain.Run, error)
	ListRunsByJob(jobSlug string) ([]*domain.Run, error)

	CreateCapture(c *domain.Capture) error
	ListCapturesByRun(runID string) ([]*domain.Capture, error)
}

// Closer releases the underlying database handle(s).
type Closer interface {
	Close() error
}
