package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ravensys/netcollect/pkg/credential"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/security"
	"github.com/ravensys/netcollect/pkg/sshexec"
)

type fakeInventoryStore struct {
	devices []*domain.Device
}

func (f *fakeInventoryStore) ListDevices() ([]*domain.Device, error) { return f.devices, nil }
func (f *fakeInventoryStore) GetDevice(id string) (*domain.Device, error) {
	for _, d := range f.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}
func (f *fakeInventoryStore) UpdateDeviceCredentialTest(deviceID string, result domain.CredentialTestResult, at time.Time, workingCredentialID string) error {
	return nil
}

type fakeSecretStore struct{ creds []*domain.Credential }

func (f *fakeSecretStore) VaultMeta() ([]byte, []byte, bool, error)    { return nil, nil, false, nil }
func (f *fakeSecretStore) SaveVaultMeta(salt, verifier []byte) error   { return nil }
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

type fakeTemplateStore struct{ templates []*domain.Template }

func (f *fakeTemplateStore) ListTemplates() ([]*domain.Template, error) { return f.templates, nil }
func (f *fakeTemplateStore) GetTemplate(identifier string) (*domain.Template, error) {
	for _, t := range f.templates {
		if t.Identifier == identifier {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeHistoryStore struct {
	runs     map[string]*domain.Run
	captures []*domain.Capture
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{runs: make(map[string]*domain.Run)}
}

func (f *fakeHistoryStore) CreateRun(r *domain.Run) error { f.runs[r.ID] = r; return nil }
func (f *fakeHistoryStore) UpdateRun(r *domain.Run) error { f.runs[r.ID] = r; return nil }
func (f *fakeHistoryStore) GetRun(id string) (*domain.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}
func (f *fakeHistoryStore) GetRunByNaturalKey(jobSlug string, startedAt time.Time) (*domain.Run, error) {
	return nil, errors.New("not found")
}
func (f *fakeHistoryStore) ListRunsByJob(jobSlug string) ([]*domain.Run, error) {
	var out []*domain.Run
	for _, r := range f.runs {
		if r.JobSlug == jobSlug {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeHistoryStore) CreateCapture(c *domain.Capture) error {
	f.captures = append(f.captures, c)
	return nil
}
func (f *fakeHistoryStore) ListCapturesByRun(runID string) ([]*domain.Capture, error) {
	var out []*domain.Capture
	for _, c := range f.captures {
		if c.RunID == runID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSession struct{}

func (s *fakeSession) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	return "Version 15.2(4)S7,\n", nil
}
func (s *fakeSession) Close() error { return nil }

type fakeTransport struct{}

func (f *fakeTransport) Open(ctx context.Context, device *domain.Device, cred *domain.DecryptedCredential, timeout time.Duration) (sshexec.DeviceSession, error) {
	return &fakeSession{}, nil
}

func testCredCache(t *testing.T) *credential.Cache {
	t.Helper()
	salt, _ := security.NewSalt()
	key := security.DeriveKey("pw", salt)
	verifier, _ := security.NewVerifier(key)
	session := security.NewSession()
	if err := session.Unlock("pw", salt, verifier); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	encPassword, _ := session.Encrypt([]byte("secret"))
	store := &fakeSecretStore{creds: []*domain.Credential{
		{ID: "lab", Username: "admin", EncryptedPassword: encPassword, IsDefault: true},
	}}
	cache, err := credential.Load(store, session)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cache
}

func testDevices(n int) []*domain.Device {
	devices := make([]*domain.Device, n)
	for i := range devices {
		devices[i] = &domain.Device{
			ID:             string(rune('a' + i)),
			Name:           string(rune('a' + i)),
			PrimaryAddress: "10.0.0.1",
			Status:         domain.DeviceStatusActive,
		}
	}
	return devices
}

func baseJob() *domain.Job {
	return &domain.Job{
		Slug:        "show-version",
		Enabled:     true,
		CaptureKind: "show_version",
		Commands:    domain.Commands{Primary: []string{"show version"}},
		Execution:   domain.ExecutionPolicy{MaxDevicesInFlight: 2, PerDeviceTimeout: time.Second},
		Storage:     domain.StorageLayout{OutputSubdir: "show-version", FilenameTemplate: "{device_name}.txt"},
	}
}

func TestJobRunnerRunSuccessWritesCaptureAndClosesRun(t *testing.T) {
	inventory := &fakeInventoryStore{devices: testDevices(2)}
	history := newFakeHistoryStore()
	templates := &fakeTemplateStore{}
	cache := testCredCache(t)

	jr := New(inventory, cache, templates, history, t.TempDir(), &fakeTransport{}, nil)

	run, outcomes, err := jr.Run(context.Background(), baseJob(), "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}
	if run.Status != domain.RunStatusSuccess {
		t.Errorf("Status = %v, want success", run.Status)
	}
	if run.Success != 2 || run.Failed != 0 || run.Skipped != 0 {
		t.Errorf("Success=%d Failed=%d Skipped=%d, want 2/0/0", run.Success, run.Failed, run.Skipped)
	}
	if len(history.captures) != 2 {
		t.Errorf("captures recorded = %d, want 2", len(history.captures))
	}
}

func TestJobRunnerRunInventoryEmptyAbortsAsFailed(t *testing.T) {
	inventory := &fakeInventoryStore{}
	history := newFakeHistoryStore()
	templates := &fakeTemplateStore{}
	cache := testCredCache(t)

	jr := New(inventory, cache, templates, history, t.TempDir(), &fakeTransport{}, nil)

	job := baseJob()
	job.Filter = domain.DeviceFilter{SiteID: "nonexistent-site-forces-empty"}

	run, _, err := jr.Run(context.Background(), job, "")
	if err == nil {
		t.Fatal("expected InventoryEmpty error")
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("Status = %v, want failed", run.Status)
	}
}

func TestJobRunnerRunConfigErrorNeverCreatesRun(t *testing.T) {
	inventory := &fakeInventoryStore{devices: testDevices(1)}
	history := newFakeHistoryStore()
	templates := &fakeTemplateStore{}
	cache := testCredCache(t)

	jr := New(inventory, cache, templates, history, t.TempDir(), &fakeTransport{}, nil)

	job := baseJob()
	job.Slug = "" // invalid per Job.Validate()

	run, _, err := jr.Run(context.Background(), job, "")
	if err == nil {
		t.Fatal("expected ConfigError")
	}
	if run != nil {
		t.Error("expected no run record for a job that fails validation")
	}
	if len(history.runs) != 0 {
		t.Error("expected no run persisted for a ConfigError")
	}
}

func TestJobRunnerRunValidationFailureWithoutSaveOnFailIsSkipped(t *testing.T) {
	inventory := &fakeInventoryStore{devices: testDevices(1)}
	history := newFakeHistoryStore()
	templates := &fakeTemplateStore{templates: []*domain.Template{
		{Identifier: "cisco_ios_show_version", Body: `(?P<never>nomatch_xyz)`},
	}}
	cache := testCredCache(t)

	jr := New(inventory, cache, templates, history, t.TempDir(), &fakeTransport{}, nil)

	job := baseJob()
	job.Validation = domain.ValidationPolicy{
		Enabled:        true,
		TemplateFilter: "cisco_ios_show_version",
		MinScore:       10,
		SaveOnFail:     false,
	}

	run, _, err := jr.Run(context.Background(), job, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Skipped != 1 || run.Success != 0 {
		t.Errorf("Skipped=%d Success=%d, want 1/0", run.Skipped, run.Success)
	}
	if len(history.captures) != 0 {
		t.Errorf("captures recorded = %d, want 0 when save-on-fail is off", len(history.captures))
	}
}

func TestJobRunnerRunValidationFailureWithSaveOnFailWritesButCountsSkipped(t *testing.T) {
	inventory := &fakeInventoryStore{devices: testDevices(1)}
	history := newFakeHistoryStore()
	templates := &fakeTemplateStore{templates: []*domain.Template{
		{Identifier: "cisco_ios_show_version", Body: `(?P<never>nomatch_xyz)`},
	}}
	cache := testCredCache(t)

	jr := New(inventory, cache, templates, history, t.TempDir(), &fakeTransport{}, nil)

	job := baseJob()
	job.Validation = domain.ValidationPolicy{
		Enabled:        true,
		TemplateFilter: "cisco_ios_show_version",
		MinScore:       10,
		SaveOnFail:     true,
	}

	run, _, err := jr.Run(context.Background(), job, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Skipped != 1 || run.Success != 0 {
		t.Errorf("Skipped=%d Success=%d, want 1/0 (save-on-fail never counts as success)", run.Skipped, run.Success)
	}
	if len(history.captures) != 1 {
		t.Errorf("captures recorded = %d, want 1 (file still written on save-on-fail)", len(history.captures))
	}
}
