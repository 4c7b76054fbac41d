package capture

import (
	"time"

	"github.com/google/uuid"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/storage"
)

// StartRun creates a history record at the beginning of a job invocation,
// status Running, and returns it so the caller can later pass it to
// CloseRun. totalDevices is the resolved device-set size, fixed at start
// even though some devices may later be skipped.
func StartRun(history storage.HistoryStore, jobSlug string, totalDevices int, startedAt time.Time) (*domain.Run, error) {
	run := &domain.Run{
		ID: uuid.New().String(),
		JobSlug: jobSlug,
		StartedAt: startedAt,
		TotalDevices: totalDevices,
		Status: domain.RunStatusRunning,
	}
	if err := history.CreateRun(run); err != nil {
		return nil, collectorerr.Wrap(collectorerr.PersistenceError, "create run record", err)
	}
	return run, nil
}

// CloseRun finalizes run with the final per-device counts and writes it
// back. It is the history store's single update per run.
func CloseRun(history storage.HistoryStore, run *domain.Run, completedAt time.Time, success, failed, skipped int) error {
	run.Close(completedAt, success, failed, skipped)
	if err := history.UpdateRun(run); err != nil {
		return collectorerr.Wrap(collectorerr.PersistenceError, "update run record", err)
	}
	return nil
}

// AbortRun finalizes run as failed when execution could not proceed past
// job start (e.g. InventoryEmpty), before any device was touched.
func AbortRun(history storage.HistoryStore, run *domain.Run, completedAt time.Time, errText string) error {
	run.ErrorText = errText
	return CloseRun(history, run, completedAt, 0, 0, 0)
}
