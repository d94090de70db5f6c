package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements store.RecordStore on SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanDate(s sql.NullString) core.Date {
	if !s.Valid {
		return core.Date{}
	}
	return core.ParseOptionalDate(s.String)
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDecimals(dst []*decimal.Decimal, src ...string) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		*dst[i] = d
	}
	return nil
}

// touch records a write to kind inside tx.
func (r *SQLiteRepository) touch(ctx context.Context, tx *sql.Tx, kind store.Kind) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collection_updates (kind, updated_at) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET updated_at = excluded.updated_at`,
		string(kind), r.now().UTC())
	return err
}

// inTx runs fn in a transaction and records the write to kind.
func (r *SQLiteRepository) inTx(ctx context.Context, kind store.Kind, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := r.touch(ctx, tx, kind); err != nil {
		return fmt.Errorf("record update time: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListTeamMembers(ctx context.Context) ([]core.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, title, department, employment_type, annual_salary,
		       start_date, termination_date, location, status, notes, created_at
		FROM team_members ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var out []core.TeamMember
	for rows.Next() {
		var (
			m           core.TeamMember
			salary      string
			start, term sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Title, &m.Department, &m.EmploymentType,
			&salary, &start, &term, &m.Location, &m.Status, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		if err := scanDecimals([]*decimal.Decimal{&m.AnnualSalary}, salary); err != nil {
			return nil, err
		}
		m.Origin = core.OriginCustom
		m.StartDate = scanDate(start)
		m.TerminationDate = scanDate(term)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTeamMember(ctx context.Context, m core.TeamMember) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == "" {
		return store.ErrMissingID
	}
	err := r.inTx(ctx, store.KindTeam, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO team_members (id, first_name, last_name, title, department,
				employment_type, annual_salary, start_date, termination_date, location, status, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name, last_name = excluded.last_name, title = excluded.title, department = excluded.department,
				employment_type = excluded.employment_type, annual_salary = excluded.annual_salary,
				start_date = excluded.start_date, termination_date = excluded.termination_date, location = excluded.location,
				status = excluded.status, notes = excluded.notes, created_at = excluded.created_at`,
			m.ID, m.FirstName, m.LastName, m.Title, string(m.Department), string(m.EmploymentType),
			m.AnnualSalary.String(), nullDate(m.StartDate), nullDate(m.TerminationDate),
			m.Location, string(m.Status), m.Notes, m.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("save team member: %w", err)
	}

	slog.InfoContext(ctx, "Team member saved to SQLite", "id", m.ID, "member", m.FullName())
	return nil
}

func (r *SQLiteRepository) ListOpexExpenses(ctx context.Context) ([]core.OpexExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, vendor, frequency, monthly_amount, annual_cost,
		       start_date, end_date, growth_rate, notes, created_at
		FROM opex_expenses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query opex expenses: %w", err)
	}
	defer rows.Close()

	var out []core.OpexExpense
	for rows.Next() {
		var (
			e                     core.OpexExpense
			monthly, annual, grow string
			start, end            sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.Vendor, &e.Frequency, &monthly, &annual,
			&start, &end, &grow, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan opex expense: %w", err)
		}
		if err := scanDecimals([]*decimal.Decimal{&e.MonthlyAmount, &e.AnnualCost, &e.GrowthRate}, monthly, annual, grow); err != nil {
			return nil, err
		}
		e.Origin = core.OriginCustom
		e.StartDate = scanDate(start)
		e.EndDate = scanDate(end)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveOpexExpense(ctx context.Context, e core.OpexExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		return store.ErrMissingID
	}
	err := r.inTx(ctx, store.KindOpex, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO opex_expenses (id, name, category, vendor, frequency,
				monthly_amount, annual_cost, start_date, end_date, growth_rate, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, category = excluded.category, vendor = excluded.vendor,
				frequency = excluded.frequency, monthly_amount = excluded.monthly_amount,
				annual_cost = excluded.annual_cost, start_date = excluded.start_date, end_date = excluded.end_date,
				growth_rate = excluded.growth_rate, notes = excluded.notes, created_at = excluded.created_at`,
			e.ID, e.Name, e.Category, e.Vendor, string(e.Frequency),
			e.MonthlyAmount.String(), e.AnnualCost.String(), nullDate(e.StartDate), nullDate(e.EndDate),
			e.GrowthRate.String(), e.Notes, e.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("save opex expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite", "id", e.ID, "expense", e.Name)
	return nil
}

func (r *SQLiteRepository) ListWholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_name, product_type, order_type, num_pairs, wholesale_price,
		       close_date, delivery_date, sales_commission, total_cost,
		       cogs_product_pct, cogs_warehousing_pct, cogs_freight_pct, cogs_merchant_pct,
		       units_produced, doors, notes, created_at
		FROM wholesale_deals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query wholesale deals: %w", err)
	}
	defer rows.Close()

	var out []core.WholesaleDeal
	for rows.Next() {
		var (
			d                         core.WholesaleDeal
			price, commission         string
			closeDate, delivery, cost sql.NullString
			rates                     [4]sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.CustomerName, &d.ProductType, &d.OrderType, &d.NumPairs, &price,
			&closeDate, &delivery, &commission, &cost,
			&rates[0], &rates[1], &rates[2], &rates[3],
			&d.UnitsProduced, &d.Doors, &d.Notes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wholesale deal: %w", err)
		}
		if err := scanDecimals([]*decimal.Decimal{&d.WholesalePrice, &d.SalesCommission}, price, commission); err != nil {
			return nil, err
		}
		var err error
		if d.TotalCost, err = scanNullDecimal(cost); err != nil {
			return nil, fmt.Errorf("parse total cost: %w", err)
		}
		for i, dst := range []**decimal.Decimal{&d.Cogs.Product, &d.Cogs.Warehousing, &d.Cogs.Freight, &d.Cogs.Merchant} {
			if *dst, err = scanNullDecimal(rates[i]); err != nil {
				return nil, fmt.Errorf("parse cogs rate: %w", err)
			}
		}
		d.Origin = core.OriginCustom
		d.CloseDate = scanDate(closeDate)
		d.DeliveryDate = scanDate(delivery)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveWholesaleDeal(ctx context.Context, d core.WholesaleDeal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.ID == "" {
		return store.ErrMissingID
	}
	err := r.inTx(ctx, store.KindWholesale, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wholesale_deals (id, customer_name, product_type, order_type, num_pairs,
				wholesale_price, close_date, delivery_date, sales_commission, total_cost,
				cogs_product_pct, cogs_warehousing_pct, cogs_freight_pct, cogs_merchant_pct,
				units_produced, doors, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				customer_name = excluded.customer_name, product_type = excluded.product_type, order_type = excluded.order_type,
				num_pairs = excluded.num_pairs, wholesale_price = excluded.wholesale_price,
				close_date = excluded.close_date, delivery_date = excluded.delivery_date, sales_commission = excluded.sales_commission,
				total_cost = excluded.total_cost, cogs_product_pct = excluded.cogs_product_pct,
				cogs_warehousing_pct = excluded.cogs_warehousing_pct, cogs_freight_pct = excluded.cogs_freight_pct,
				cogs_merchant_pct = excluded.cogs_merchant_pct, units_produced = excluded.units_produced,
				doors = excluded.doors, notes = excluded.notes, created_at = excluded.created_at`,
			d.ID, d.CustomerName, string(d.ProductType), string(d.OrderType), d.NumPairs,
			d.WholesalePrice.String(), nullDate(d.CloseDate), nullDate(d.DeliveryDate),
			d.SalesCommission.String(), nullDecimal(d.TotalCost),
			nullDecimal(d.Cogs.Product), nullDecimal(d.Cogs.Warehousing),
			nullDecimal(d.Cogs.Freight), nullDecimal(d.Cogs.Merchant),
			d.UnitsProduced, d.Doors, d.Notes, d.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("save wholesale deal: %w", err)
	}

	slog.InfoContext(ctx, "Wholesale deal saved to SQLite", "id", d.ID, "customer", d.CustomerName)
	return nil
}

func (r *SQLiteRepository) LoadAssumptions(ctx context.Context) (core.Assumptions, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM model_assumptions WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Assumptions{}, store.ErrNotFound
	}
	if err != nil {
		return core.Assumptions{}, fmt.Errorf("query assumptions: %w", err)
	}
	var a core.Assumptions
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return core.Assumptions{}, fmt.Errorf("decode assumptions: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) SaveAssumptions(ctx context.Context, a core.Assumptions) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assumptions: %w", err)
	}
	err = r.inTx(ctx, store.KindAssumptions, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_assumptions (id, data) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET data = excluded.data`, string(data))
		return err
	})
	if err != nil {
		return fmt.Errorf("save assumptions: %w", err)
	}
	return nil
}

var kindTables = map[store.Kind]string{
	store.KindTeam:        "team_members",
	store.KindOpex:        "opex_expenses",
	store.KindWholesale:   "wholesale_deals",
	store.KindAssumptions: "model_assumptions",
}

func (r *SQLiteRepository) ClearCustom(ctx context.Context, kind store.Kind) (int, error) {
	table, ok := kindTables[kind]
	if !ok {
		return 0, store.ErrUnknownKind
	}
	var n int64
	err := r.inTx(ctx, kind, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "Cleared custom records", "kind", kind, "removed", n)
	return int(n), nil
}

func (r *SQLiteRepository) LastUpdated(ctx context.Context, kind store.Kind) (time.Time, error) {
	if !kind.IsValid() {
		return time.Time{}, store.ErrUnknownKind
	}
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM collection_updates WHERE kind = ?`, string(kind)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last updated: %w", err)
	}
	return ts, nil
}
