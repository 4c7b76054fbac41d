package credential

import (
	"testing"

	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/security"
)

type fakeSecretStore struct {
	creds []*domain.Credential
}

func (f *fakeSecretStore) VaultMeta() ([]byte, []byte, bool, error)   { return nil, nil, false, nil }
func (f *fakeSecretStore) SaveVaultMeta(salt, verifier []byte) error  { return nil }
func (f *fakeSecretStore) CreateCredential(c *domain.Credential) error { return nil }
func (f *fakeSecretStore) GetCredential(id string) (*domain.Credential, error) {
	for _, c := range f.creds {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}
func (f *fakeSecretStore) ListCredentials() ([]*domain.Credential, error) { return f.creds, nil }
func (f *fakeSecretStore) DefaultCredential() (*domain.Credential, error) {
	for _, c := range f.creds {
		if c.IsDefault {
			return c, nil
		}
	}
	return nil, nil
}

func unlockedSession(t *testing.T, password string) *security.Session {
	t.Helper()
	salt, err := security.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	key := security.DeriveKey(password, salt)
	verifier, err := security.NewVerifier(key)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	s := security.NewSession()
	if err := s.Unlock(password, salt, verifier); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	return s
}

func TestCacheLoadDecryptsCredentials(t *testing.T) {
	session := unlockedSession(t, "vault-password")

	encPassword, err := session.Encrypt([]byte("s3cr3t"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	store := &fakeSecretStore{creds: []*domain.Credential{
		{ID: "lab", Username: "admin", EncryptedPassword: encPassword, IsDefault: true},
	}}

	cache, err := Load(store, session)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	dc, ok := cache.Get("lab")
	if !ok {
		t.Fatal("Get(lab) ok = false, want true")
	}
	if dc.Password != "s3cr3t" {
		t.Errorf("dc.Password = %q, want s3cr3t", dc.Password)
	}

	def, ok := cache.Default()
	if !ok || def.ID != "lab" {
		t.Errorf("Default() = %+v, %v, want lab credential", def, ok)
	}
}

func TestCacheWipeClearsSecrets(t *testing.T) {
	session := unlockedSession(t, "vault-password")
	encPassword, _ := session.Encrypt([]byte("s3cr3t"))
	store := &fakeSecretStore{creds: []*domain.Credential{
		{ID: "lab", EncryptedPassword: encPassword},
	}}

	cache, err := Load(store, session)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dc, _ := cache.Get("lab")

	cache.Wipe()

	if dc.Password != "" {
		t.Errorf("dc.Password = %q after Wipe, want empty", dc.Password)
	}
	if _, ok := cache.Get("lab"); ok {
		t.Error("Get(lab) after Wipe ok = true, want false")
	}
}
