// Package worker recomputes projections in the background and stores them as
// snapshots.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/services"
	"finplan/internal/storage"
	"finplan/internal/store"
)

// Projector computes the figures a snapshot records.
type Projector interface {
	ProfitAndLoss(ctx context.Context, year int, r services.Rates) (core.ProfitAndLoss, error)
	Runway(ctx context.Context, year int, pos *core.CashPosition) (core.RunwayReport, error)
}

// SnapshotStore persists snapshots. Implemented by *storage.SQLiteRepository.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s storage.ProjectionSnapshot) (int64, error)
	LatestSnapshot(ctx context.Context, year int) (storage.ProjectionSnapshot, error)
	PruneSnapshots(ctx context.Context, keep int) (int64, error)
}

// SnapshotWorker refreshes the snapshot for one plan year whenever records
// change, and periodically as a backstop for missed events.
type SnapshotWorker struct {
	projector Projector
	snapshots SnapshotStore
	year      int
	keep      int
	now       func() time.Time
}

func NewSnapshotWorker(projector Projector, snapshots SnapshotStore, year, keep int) *SnapshotWorker {
	return &SnapshotWorker{
		projector: projector,
		snapshots: snapshots,
		year:      year,
		keep:      keep,
		now:       time.Now,
	}
}

// HandleRecordsChanged refreshes the snapshot after a write. Events for
// records dated in another year are still applied, since deals and hires
// can move money across years.
func (w *SnapshotWorker) HandleRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error {
	slog.InfoContext(ctx, "Processing records changed message",
		"kind", msg.Kind,
		"record_id", msg.RecordID,
		"year", msg.Year)

	if _, err := w.Refresh(ctx, "records_changed:"+msg.Kind); err != nil {
		return fmt.Errorf("refresh after %s change: %w", msg.Kind, err)
	}
	return nil
}

// Refresh computes and stores a snapshot, then prunes old ones.
func (w *SnapshotWorker) Refresh(ctx context.Context, reason string) (storage.ProjectionSnapshot, error) {
	pl, err := w.projector.ProfitAndLoss(ctx, w.year, services.Rates{})
	if err != nil {
		return storage.ProjectionSnapshot{}, fmt.Errorf("compute profit and loss: %w", err)
	}
	runway, err := w.projector.Runway(ctx, w.year, nil)
	if err != nil {
		return storage.ProjectionSnapshot{}, fmt.Errorf("compute runway: %w", err)
	}

	snap := storage.NewProjectionSnapshot(reason, pl, runway, w.now())
	id, err := w.snapshots.SaveSnapshot(ctx, snap)
	if err != nil {
		return snap, fmt.Errorf("save snapshot: %w", err)
	}
	snap.ID = id

	pruned, err := w.snapshots.PruneSnapshots(ctx, w.keep)
	if err != nil {
		// the snapshot is saved; pruning is retried on the next refresh
		slog.ErrorContext(ctx, "Failed to prune snapshots", "error", err)
	}

	slog.InfoContext(ctx, "Snapshot stored",
		"id", id,
		"year", w.year,
		"reason", reason,
		"ebitda", snap.EBITDA.StringFixed(2),
		"ending_cash", snap.EndingCash.StringFixed(2),
		"pruned", pruned)
	return snap, nil
}

// StartupCheck stores a first snapshot when the year has none.
func (w *SnapshotWorker) StartupCheck(ctx context.Context) error {
	_, err := w.snapshots.LatestSnapshot(ctx, w.year)
	if err == nil {
		slog.InfoContext(ctx, "Existing snapshot found on startup", "year", w.year)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check latest snapshot: %w", err)
	}
	_, err = w.Refresh(ctx, "startup")
	return err
}

// Run refreshes on every tick until ctx is done.
func (w *SnapshotWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Refresh(ctx, "periodic"); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}
