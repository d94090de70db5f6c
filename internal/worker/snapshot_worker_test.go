package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/services"
	"finplan/internal/storage"
	"finplan/internal/store"

	"github.com/shopspring/decimal"
)

type fakeProjector struct {
	err   error
	calls int
}

func (p *fakeProjector) ProfitAndLoss(_ context.Context, year int, _ services.Rates) (core.ProfitAndLoss, error) {
	p.calls++
	if p.err != nil {
		return core.ProfitAndLoss{}, p.err
	}
	pl := core.ProfitAndLoss{Year: year, DTCForecast: true}
	pl.Totals.EBITDA = decimal.NewFromInt(-1000)
	return pl, nil
}

func (p *fakeProjector) Runway(_ context.Context, year int, _ *core.CashPosition) (core.RunwayReport, error) {
	r := core.RunwayReport{Year: year}
	r.Insights.EndingCash = decimal.NewFromInt(500)
	return r, nil
}

type fakeSnapshots struct {
	saved    []storage.ProjectionSnapshot
	pruneErr error
	pruned   int
}

func (s *fakeSnapshots) SaveSnapshot(_ context.Context, snap storage.ProjectionSnapshot) (int64, error) {
	s.saved = append(s.saved, snap)
	return int64(len(s.saved)), nil
}

func (s *fakeSnapshots) LatestSnapshot(_ context.Context, year int) (storage.ProjectionSnapshot, error) {
	for i := len(s.saved) - 1; i >= 0; i-- {
		if s.saved[i].Year == year {
			return s.saved[i], nil
		}
	}
	return storage.ProjectionSnapshot{}, store.ErrNotFound
}

func (s *fakeSnapshots) PruneSnapshots(_ context.Context, keep int) (int64, error) {
	s.pruned++
	return 0, s.pruneErr
}

func TestHandleRecordsChanged(t *testing.T) {
	snaps := &fakeSnapshots{}
	w := NewSnapshotWorker(&fakeProjector{}, snaps, 2026, 10)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	msg := amqp.NewRecordsChangedMessage("opex", "abc", 2026)
	if err := w.HandleRecordsChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordsChanged: %v", err)
	}
	if len(snaps.saved) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(snaps.saved))
	}
	got := snaps.saved[0]
	if got.Reason != "records_changed:opex" || got.Year != 2026 {
		t.Fatalf("unexpected snapshot %q %d", got.Reason, got.Year)
	}
	if !got.EndingCash.Equal(decimal.NewFromInt(500)) || !got.EBITDA.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("summary not copied: %s %s", got.EndingCash, got.EBITDA)
	}
	if snaps.pruned != 1 {
		t.Fatalf("expected a prune after saving")
	}
}

func TestRefreshErrors(t *testing.T) {
	t.Run("projection failure saves nothing", func(t *testing.T) {
		snaps := &fakeSnapshots{}
		w := NewSnapshotWorker(&fakeProjector{err: errors.New("boom")}, snaps, 2026, 10)
		if _, err := w.Refresh(context.Background(), "manual"); err == nil {
			t.Fatal("expected error")
		}
		if len(snaps.saved) != 0 {
			t.Fatalf("nothing should be saved")
		}
	})

	t.Run("prune failure is not fatal", func(t *testing.T) {
		snaps := &fakeSnapshots{pruneErr: errors.New("locked")}
		w := NewSnapshotWorker(&fakeProjector{}, snaps, 2026, 10)
		snap, err := w.Refresh(context.Background(), "manual")
		if err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if snap.ID != 1 {
			t.Fatalf("snapshot id %d", snap.ID)
		}
	})
}

func TestStartupCheckOnlyWhenMissing(t *testing.T) {
	proj := &fakeProjector{}
	snaps := &fakeSnapshots{}
	w := NewSnapshotWorker(proj, snaps, 2026, 10)
	ctx := context.Background()

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if proj.calls != 1 || len(snaps.saved) != 1 {
		t.Fatalf("expected a single startup snapshot, got %d", len(snaps.saved))
	}
	if snaps.saved[0].Reason != "startup" {
		t.Fatalf("reason %q", snaps.saved[0].Reason)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := NewSnapshotWorker(&fakeProjector{}, &fakeSnapshots{}, 2026, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
