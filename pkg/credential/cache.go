package credential

import (
	"fmt"
	"sync"

	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/security"
	"github.com/ravensys/netcollect/pkg/storage"
)

// Cache holds every secret-store credential decrypted once, for O(1) lookup
// by id. It must not outlive the security.Session that produced it; callers
// should discard the Cache when the session is locked.
type Cache struct {
	mu sync.RWMutex
	byID map[string]*domain.DecryptedCredential
	defCred *domain.DecryptedCredential
}

// Load decrypts every row in the secret store using the unlocked session.
func Load(store storage.SecretStore, session *security.Session) (*Cache, error) {
	rows, err := store.ListCredentials()
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	c := &Cache{byID: make(map[string]*domain.DecryptedCredential, len(rows))}

	for _, row := range rows {
		dc, err := decrypt(row, session)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential %s: %w", row.ID, err)
		}
		c.byID[dc.ID] = dc
		if row.IsDefault {
			c.defCred = dc
		}
	}

	return c, nil
}

func decrypt(row *domain.Credential, session *security.Session) (*domain.DecryptedCredential, error) {
	dc := &domain.DecryptedCredential{
		ID: row.ID,
		Name: row.Name,
		Username: row.Username,
	}

	if len(row.EncryptedPassword) > 0 {
		plain, err := session.Decrypt(row.EncryptedPassword)
		if err != nil {
			return nil, fmt.Errorf("decrypt password: %w", err)
		}
		dc.Password = string(plain)
	}
	if len(row.EncryptedKey) > 0 {
		plain, err := session.Decrypt(row.EncryptedKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt key: %w", err)
		}
		dc.PrivateKey = plain
	}
	if len(row.EncryptedKeyPassphrase) > 0 {
		plain, err := session.Decrypt(row.EncryptedKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypt key passphrase: %w", err)
		}
		dc.KeyPassphrase = string(plain)
	}

	return dc, nil
}

// Get returns the decrypted credential with the given id, if present.
func (c *Cache) Get(id string) (*domain.DecryptedCredential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dc, ok := c.byID[id]
	return dc, ok
}

// Default returns the secret store's default credential, if one is marked.
func (c *Cache) Default() (*domain.DecryptedCredential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.defCred == nil {
		return nil, false
	}
	return c.defCred, true
}

// All returns every decrypted credential, in no particular order.
func (c *Cache) All() []*domain.DecryptedCredential {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.DecryptedCredential, 0, len(c.byID))
	for _, dc := range c.byID {
		out = append(out, dc)
	}
	return out
}

// Wipe zeroes every decrypted secret this cache holds, so nothing still
// referencing this Cache after the owning session is locked can read
// leftover plaintext.
func (c *Cache) Wipe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, dc := range c.byID {
		zero(dc.PrivateKey)
		dc.Password = ""
		dc.KeyPassphrase = ""
	}
	c.byID = nil
	c.defCred = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
