package credential

import (
	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
)

// Resolver implements the four-step resolution chain.
type Resolver struct {
	cache *Cache
}

// NewResolver returns a Resolver backed by a decrypted credential cache.
func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve picks the credential to use for a device. override, if non-empty,
// is the run-wide credential id override supplied by the caller; it is
// consulted after the device's own pin and before the store default.
func (r *Resolver) Resolve(device *domain.Device, override string) (*domain.DecryptedCredential, error) {
	if device.PinnedCredentialID != "" && device.LastCredentialTestResult == domain.CredentialTestSuccess {
		if dc, ok := r.cache.Get(device.PinnedCredentialID); ok {
			return dc, nil
		}
	}

	if override != "" {
		if dc, ok := r.cache.Get(override); ok {
			return dc, nil
		}
	}

	if dc, ok := r.cache.Default(); ok {
		return dc, nil
	}

	return nil, collectorerr.New(collectorerr.NoCredential, "no credential available for device "+device.Name)
}
