package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
)

type fakeHistoryStore struct {
	runs      map[string]*domain.Run
	captures  []*domain.Capture
	createErr error
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{runs: make(map[string]*domain.Run)}
}

func (f *fakeHistoryStore) CreateRun(r *domain.Run) error {
	f.runs[r.ID] = r
	return nil
}

func (f *fakeHistoryStore) UpdateRun(r *domain.Run) error {
	f.runs[r.ID] = r
	return nil
}

func (f *fakeHistoryStore) GetRun(id string) (*domain.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeHistoryStore) GetRunByNaturalKey(jobSlug string, startedAt time.Time) (*domain.Run, error) {
	for _, r := range f.runs {
		if r.JobSlug == jobSlug && r.StartedAt.Equal(startedAt) {
			return r, nil
		}
	}
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
	if f.createErr != nil {
		return f.createErr
	}
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

func TestWriterSaveWritesFileAndMetadata(t *testing.T) {
	dir := t.TempDir()
	history := newFakeHistoryStore()
	w := New(dir, history)

	run := &domain.Run{ID: "run-1"}
	layout := domain.StorageLayout{OutputSubdir: "arp-table", FilenameTemplate: "{device_name}.txt"}
	device := &domain.Device{ID: "d1", Name: "sw-01"}
	score := 85

	c, err := w.Save(run, layout, device, "show_ip_arp", []byte("hello\n"), &score, time.Now())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := os.ReadFile(c.Path)
	if err != nil {
		t.Fatalf("reading capture file: %v", err)
	}
	if string(got) != "hello\n" {
		t.Errorf("file contents = %q", got)
	}
	if c.Bytes != int64(len("hello\n")) {
		t.Errorf("Bytes = %d", c.Bytes)
	}
	if len(history.captures) != 1 {
		t.Fatalf("expected 1 capture metadata row, got %d", len(history.captures))
	}

	wantDir := filepath.Join(dir, "arp-table")
	if filepath.Dir(c.Path) != wantDir {
		t.Errorf("capture dir = %q, want %q", filepath.Dir(c.Path), wantDir)
	}

	entries, err := os.ReadDir(wantDir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestWriterSavePropagatesMetadataError(t *testing.T) {
	dir := t.TempDir()
	history := newFakeHistoryStore()
	history.createErr = errors.New("disk full")
	w := New(dir, history)

	run := &domain.Run{ID: "run-1"}
	layout := domain.StorageLayout{OutputSubdir: "x", FilenameTemplate: "{device_name}.txt"}
	device := &domain.Device{ID: "d1", Name: "sw-01"}

	_, err := w.Save(run, layout, device, "show_version", []byte("data"), nil, time.Now())
	if err == nil {
		t.Fatal("expected error when CreateCapture fails")
	}
}

func TestStartRunAndCloseRunDeriveStatus(t *testing.T) {
	history := newFakeHistoryStore()
	run, err := StartRun(history, "show-arp", 3, time.Now())
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if run.Status != domain.RunStatusRunning {
		t.Fatalf("Status = %v, want running", run.Status)
	}

	if err := CloseRun(history, run, time.Now(), 2, 1, 0); err != nil {
		t.Fatalf("CloseRun() error = %v", err)
	}
	if run.Status != domain.RunStatusPartial {
		t.Errorf("Status = %v, want partial", run.Status)
	}

	stored, _ := history.GetRun(run.ID)
	if stored.Status != domain.RunStatusPartial {
		t.Errorf("stored Status = %v, want partial", stored.Status)
	}
}
