package capture

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/storage"
)

// Writer persists one capture file plus its metadata row per call. A single
// Writer is shared by every device in a run; it holds no per-run state.
type Writer struct {
	root string // collection root directory, outside any job's subdir
	history storage.HistoryStore
}

// New returns a Writer rooted at root, recording metadata rows into history.
func New(root string, history storage.HistoryStore) *Writer {
	return &Writer{root: root, history: history}
}

// Save writes data to the job's configured path for device, atomically, and
// records a Capture row linked to run. score is nil when validation did not
// run. A failure here is always a PersistenceError and is the caller's
// responsibility to treat as a single-device failure, not a run abort.
func (w *Writer) Save(run *domain.Run, layout domain.StorageLayout, device *domain.Device, kind string, data []byte, score *int, at time.Time) (*domain.Capture, error) {
	dir := filepath.Join(w.root, layout.OutputSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, collectorerr.Wrap(collectorerr.PersistenceError, "create capture directory", err)
	}

	filename := ExpandFilename(layout.FilenameTemplate, device, at)
	path := filepath.Join(dir, filename)

	if err := writeAtomic(path, data); err != nil {
		return nil, collectorerr.Wrap(collectorerr.PersistenceError, "write capture file", err)
	}

	c := &domain.Capture{
		ID: uuid.New().String(),
		RunID: run.ID,
		DeviceName: device.Name,
		Kind: kind,
		Path: path,
		Bytes: int64(len(data)),
		CreatedAt: at,
		Score: score,
	}
	if err := w.history.CreateCapture(c); err != nil {
		return nil, collectorerr.Wrap(collectorerr.PersistenceError, "record capture metadata", err)
	}

	log.WithDevice(device.Name).Debug().
		Str("path", path).
		Int64("bytes", c.Bytes).
		Msg("capture written")
	return c, nil
}

// writeAtomic writes data to a sibling temp file in path's directory, then
// renames it into place, so a reader never observes a truncated capture.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".capture-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
