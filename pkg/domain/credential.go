package domain

// Credential is a secret-store entry. EncryptedPassword, EncryptedKey, and
// EncryptedKeyPassphrase hold envelope-encrypted blobs (see pkg/security);
// the core never handles plaintext credentials outside of an unlocked
// in-memory cache.
type Credential struct {
	ID string
	Name string
	Username string
	EncryptedPassword []byte
	EncryptedKey []byte
	EncryptedKeyPassphrase []byte
	IsDefault bool
}

// HasSecret reports whether the credential carries at least one usable
// authentication factor.
func (c *Credential) HasSecret() bool {
	return len(c.EncryptedPassword) > 0 || len(c.EncryptedKey) > 0
}

// DecryptedCredential is the in-memory, plaintext form of a Credential. It
// must never be persisted or logged, and must not outlive the secret store
// session that produced it (see pkg/security.Session.Lock).
type DecryptedCredential struct {
	ID string
	Name string
	Username string
	Password string
	PrivateKey []byte
	KeyPassphrase string
}
