package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketDevices = []byte("devices")
	bucketVaultMeta = []byte("vault_meta")
	bucketCredentials = []byte("credentials")
	bucketTemplates = []byte("templates")
	bucketRuns = []byte("runs")
	bucketCaptures = []byte("captures")
)

const vaultMetaKey = "meta"

// BoltStore implements InventoryStore, SecretStore, TemplateStore, and
// HistoryStore over a single embedded bbolt database, one bucket per
// entity kind, values JSON-marshaled.
type BoltStore struct {
	db *bolt.DB
}

// Open creates (or opens) the bolt database at dataDir/collection.db and
// ensures every bucket this store uses exists.
func Open(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "collection.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{
			bucketDevices, bucketVaultMeta, bucketCredentials,
			bucketTemplates, bucketRuns, bucketCaptures,
		} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// --- Inventory ---

func (s *BoltStore) ListDevices() ([]*domain.Device, error) {
	var devices []*domain.Device
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		return b.ForEach(func(k, v []byte) error {
			var d domain.Device
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			devices = append(devices, &d)
			return nil
		})
	})
	return devices, err
}

func (s *BoltStore) GetDevice(id string) (*domain.Device, error) {
	var d domain.Device
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("device not found: %s", id)
		}
		return json.Unmarshal(data, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDevice/UpdateDevice are used by seeding tools and tests; production
// inventory CRUD belongs to an external collaborator, not this package.
func (s *BoltStore) CreateDevice(d *domain.Device) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return b.Put([]byte(d.ID), data)
	})
}

func (s *BoltStore) UpdateDeviceCredentialTest(deviceID string, result domain.CredentialTestResult, at time.Time, workingCredentialID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		data := b.Get([]byte(deviceID))
		if data == nil {
			return fmt.Errorf("device not found: %s", deviceID)
		}
		var d domain.Device
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		d.LastCredentialTestResult = result
		d.LastCredentialTestAt = at
		if result == domain.CredentialTestSuccess && workingCredentialID != "" {
			d.PinnedCredentialID = workingCredentialID
		}
		out, err := json.Marshal(&d)
		if err != nil {
			return err
		}
		return b.Put([]byte(deviceID), out)
	})
}

// --- Secrets ---

type vaultMeta struct {
	Salt []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

func (s *BoltStore) VaultMeta() ([]byte, []byte, bool, error) {
	var meta vaultMeta
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVaultMeta)
		data := b.Get([]byte(vaultMetaKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return nil, nil, false, err
	}
	return meta.Salt, meta.Verifier, found, nil
}

func (s *BoltStore) SaveVaultMeta(salt, verifier []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVaultMeta)
		data, err := json.Marshal(vaultMeta{Salt: salt, Verifier: verifier})
		if err != nil {
			return err
		}
		return b.Put([]byte(vaultMetaKey), data)
	})
}

func (s *BoltStore) CreateCredential(c *domain.Credential) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return b.Put([]byte(c.ID), data)
	})
}

func (s *BoltStore) GetCredential(id string) (*domain.Credential, error) {
	var c domain.Credential
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("credential not found: %s", id)
		}
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *BoltStore) ListCredentials() ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		return b.ForEach(func(k, v []byte) error {
			var c domain.Credential
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			creds = append(creds, &c)
			return nil
		})
	})
	return creds, err
}

func (s *BoltStore) DefaultCredential() (*domain.Credential, error) {
	creds, err := s.ListCredentials()
	if err != nil {
		return nil, err
	}
	for _, c := range creds {
		if c.IsDefault {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no default credential configured")
}

// --- Templates ---

func (s *BoltStore) ListTemplates() ([]*domain.Template, error) {
	var templates []*domain.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTemplates)
		return b.ForEach(func(k, v []byte) error {
			var t domain.Template
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			templates = append(templates, &t)
			return nil
		})
	})
	return templates, err
}

func (s *BoltStore) GetTemplate(identifier string) (*domain.Template, error) {
	var t domain.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTemplates)
		data := b.Get([]byte(identifier))
		if data == nil {
			return fmt.Errorf("template not found: %s", identifier)
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate is used by seeding tools; the template store is read-only
// to the collection core at run time.
func (s *BoltStore) CreateTemplate(t *domain.Template) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTemplates)
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(t.Identifier), data)
	})
}

// --- History ---

func (s *BoltStore) CreateRun(r *domain.Run) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put([]byte(r.ID), data)
	})
}

func (s *BoltStore) UpdateRun(r *domain.Run) error {
	return s.CreateRun(r) // bucket Put is an upsert
}

func (s *BoltStore) GetRun(id string) (*domain.Run, error) {
	var r domain.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *BoltStore) GetRunByNaturalKey(jobSlug string, startedAt time.Time) (*domain.Run, error) {
	runs, err := s.ListRunsByJob(jobSlug)
	if err != nil {
		return nil, err
	}
	// Match at whole-second precision: operators supply RFC3339 timestamps
	// as printed by the CLI and logs, while StartedAt keeps sub-second time.
	for _, r := range runs {
		if r.StartedAt.Truncate(time.Second).Equal(startedAt.Truncate(time.Second)) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run not found for job %s started at %s", jobSlug, startedAt)
}

func (s *BoltStore) ListRunsByJob(jobSlug string) ([]*domain.Run, error) {
	var runs []*domain.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(k, v []byte) error {
			var r domain.Run
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.JobSlug == jobSlug {
				runs = append(runs, &r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })
	return runs, nil
}

func (s *BoltStore) CreateCapture(c *domain.Capture) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCaptures)
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return b.Put([]byte(c.ID), data)
	})
}

func (s *BoltStore) ListCapturesByRun(runID string) ([]*domain.Capture, error) {
	var captures []*domain.Capture
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCaptures)
		return b.ForEach(func(k, v []byte) error {
			var c domain.Capture
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if c.RunID == runID {
				captures = append(captures, &c)
			}
			return nil
		})
	})
	return captures, err
}
