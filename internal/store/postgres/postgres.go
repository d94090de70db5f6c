// Package postgres stores custom records as JSONB documents in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS planning_records (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS planning_updates (
	kind       TEXT PRIMARY KEY,
	updated_at TIMESTAMPTZ NOT NULL
);`

// assumptionsID identifies the single assumptions document.
const assumptionsID = "current"

// Store is a store.RecordStore backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

// Open connects to databaseURL and creates the schema if needed.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func list[T any](ctx context.Context, s *Store, kind store.Kind) ([]T, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM planning_records
		WHERE kind = $1
		ORDER BY created_at, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w", kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// save upserts one document by ID and bumps the collection's update time.
func (s *Store) save(ctx context.Context, kind store.Kind, id string, createdAt time.Time, v any) error {
	if id == "" {
		return fmt.Errorf("save %s record: %w", kind, store.ErrMissingID)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", kind, err)
	}
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO planning_records (kind, id, data, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (kind, id) DO UPDATE
			SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
			string(kind), id, data, createdAt.UTC())
		if err != nil {
			return fmt.Errorf("upsert %s record: %w", kind, err)
		}
		return s.touch(ctx, tx, kind)
	})
}

func (s *Store) touch(ctx context.Context, tx pgx.Tx, kind store.Kind) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO planning_updates (kind, updated_at) VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		string(kind), s.now().UTC())
	if err != nil {
		return fmt.Errorf("record update time: %w", err)
	}
	return nil
}

func (s *Store) ListTeamMembers(ctx context.Context) ([]core.TeamMember, error) {
	return list[core.TeamMember](ctx, s, store.KindTeam)
}

func (s *Store) SaveTeamMember(ctx context.Context, m core.TeamMember) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.save(ctx, store.KindTeam, m.ID, m.CreatedAt, m)
}

func (s *Store) ListOpexExpenses(ctx context.Context) ([]core.OpexExpense, error) {
	return list[core.OpexExpense](ctx, s, store.KindOpex)
}

func (s *Store) SaveOpexExpense(ctx context.Context, e core.OpexExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.save(ctx, store.KindOpex, e.ID, e.CreatedAt, e)
}

func (s *Store) ListWholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error) {
	return list[core.WholesaleDeal](ctx, s, store.KindWholesale)
}

func (s *Store) SaveWholesaleDeal(ctx context.Context, d core.WholesaleDeal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.save(ctx, store.KindWholesale, d.ID, d.CreatedAt, d)
}

func (s *Store) LoadAssumptions(ctx context.Context) (core.Assumptions, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM planning_records
		WHERE kind = $1 AND id = $2`, string(store.KindAssumptions), assumptionsID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Assumptions{}, store.ErrNotFound
	}
	if err != nil {
		return core.Assumptions{}, fmt.Errorf("query assumptions: %w", err)
	}
	var a core.Assumptions
	if err := json.Unmarshal(data, &a); err != nil {
		return core.Assumptions{}, fmt.Errorf("decode assumptions: %w", err)
	}
	return a, nil
}

func (s *Store) SaveAssumptions(ctx context.Context, a core.Assumptions) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.save(ctx, store.KindAssumptions, assumptionsID, time.Time{}, a)
}

func (s *Store) ClearCustom(ctx context.Context, kind store.Kind) (int, error) {
	if !kind.IsValid() {
		return 0, store.ErrUnknownKind
	}
	var n int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM planning_records WHERE kind = $1`, string(kind))
		if err != nil {
			return fmt.Errorf("delete %s records: %w", kind, err)
		}
		n = tag.RowsAffected()
		return s.touch(ctx, tx, kind)
	})
	return int(n), err
}

func (s *Store) LastUpdated(ctx context.Context, kind store.Kind) (time.Time, error) {
	if !kind.IsValid() {
		return time.Time{}, store.ErrUnknownKind
	}
	var ts time.Time
	err := s.pool.QueryRow(ctx, `SELECT updated_at FROM planning_updates WHERE kind = $1`, string(kind)).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last updated: %w", err)
	}
	return ts, nil
}
