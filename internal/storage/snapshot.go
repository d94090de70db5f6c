package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ProjectionSnapshot is a stored P&L and runway computation.
type ProjectionSnapshot struct {
	ID            int64              `json:"id"`
	Year          int                `json:"year"`
	Reason        string             `json:"reason"`
	DTCForecast   bool               `json:"dtc_forecast"`
	TotalRevenue  decimal.Decimal    `json:"total_revenue"`
	EBITDA        decimal.Decimal    `json:"ebitda"`
	EndingCash    decimal.Decimal    `json:"ending_cash"`
	ProfitAndLoss core.ProfitAndLoss `json:"profit_and_loss"`
	Runway        core.RunwayReport  `json:"runway"`
	ComputedAt    time.Time          `json:"computed_at"`
}

// NewProjectionSnapshot summarises a computed year.
func NewProjectionSnapshot(reason string, pl core.ProfitAndLoss, runway core.RunwayReport, at time.Time) ProjectionSnapshot {
	return ProjectionSnapshot{
		Year:          pl.Year,
		Reason:        reason,
		DTCForecast:   pl.DTCForecast,
		TotalRevenue:  pl.Totals.TotalRevenue,
		EBITDA:        pl.Totals.EBITDA,
		EndingCash:    runway.Insights.EndingCash,
		ProfitAndLoss: pl,
		Runway:        runway,
		ComputedAt:    at.UTC(),
	}
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s ProjectionSnapshot) (int64, error) {
	plJSON, err := json.Marshal(s.ProfitAndLoss)
	if err != nil {
		return 0, fmt.Errorf("encode profit and loss: %w", err)
	}
	runwayJSON, err := json.Marshal(s.Runway)
	if err != nil {
		return 0, fmt.Errorf("encode runway: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projection_snapshots (year, reason, dtc_forecast, total_revenue, ebitda, ending_cash,
			profit_and_loss, runway, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Year, s.Reason, s.DTCForecast, s.TotalRevenue.String(), s.EBITDA.String(), s.EndingCash.String(),
		string(plJSON), string(runwayJSON), s.ComputedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

const snapshotColumns = `id, year, reason, dtc_forecast, total_revenue, ebitda, ending_cash,
	profit_and_loss, runway, computed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (ProjectionSnapshot, error) {
	var (
		s                     ProjectionSnapshot
		revenue, ebitda, cash string
		plJSON, runwayJSON    string
	)
	if err := row.Scan(&s.ID, &s.Year, &s.Reason, &s.DTCForecast, &revenue, &ebitda, &cash,
		&plJSON, &runwayJSON, &s.ComputedAt); err != nil {
		return s, err
	}
	if err := scanDecimals([]*decimal.Decimal{&s.TotalRevenue, &s.EBITDA, &s.EndingCash}, revenue, ebitda, cash); err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(plJSON), &s.ProfitAndLoss); err != nil {
		return s, fmt.Errorf("decode profit and loss: %w", err)
	}
	if err := json.Unmarshal([]byte(runwayJSON), &s.Runway); err != nil {
		return s, fmt.Errorf("decode runway: %w", err)
	}
	return s, nil
}

// LatestSnapshot returns the most recent snapshot for year.
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context, year int) (ProjectionSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+`
		FROM projection_snapshots WHERE year = ? ORDER BY computed_at DESC, id DESC LIMIT 1`, year)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, store.ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("query latest snapshot: %w", err)
	}
	return s, nil
}

// ListSnapshots returns up to limit snapshots for year, newest first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, year, limit int) ([]ProjectionSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+snapshotColumns+`
		FROM projection_snapshots WHERE year = ? ORDER BY computed_at DESC, id DESC LIMIT ?`, year, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []ProjectionSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the newest keep snapshots per year.
func (r *SQLiteRepository) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM projection_snapshots WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY year ORDER BY computed_at DESC, id DESC) AS rn
				FROM projection_snapshots
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
