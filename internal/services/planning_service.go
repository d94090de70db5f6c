package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/adapters"
	"finplan/internal/amqp"
	"finplan/internal/baseline"
	"finplan/internal/cache"
	"finplan/internal/core"
	"finplan/internal/engine"
	"finplan/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher announces record changes. Implemented by *amqp.Client.
type Publisher interface {
	PublishRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error
}

// PlanningService owns the record store for one plan and computes
// projections from it. Writes are saved first, then announced; a failed
// announcement is logged and never fails the write.
type PlanningService struct {
	records   *adapters.BaselineStore
	engine    *engine.Engine
	publisher Publisher
	plCache   cache.Cache[core.ProfitAndLoss]
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*PlanningService)

// WithPublisher enables records-changed events.
func WithPublisher(p Publisher) Option {
	return func(s *PlanningService) { s.publisher = p }
}

// WithProfitCache caches computed P&Ls until the next write.
func WithProfitCache(c cache.Cache[core.ProfitAndLoss]) Option {
	return func(s *PlanningService) { s.plCache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *PlanningService) { s.logger = l }
}

// WithEngine replaces the default engine.
func WithEngine(e *engine.Engine) Option {
	return func(s *PlanningService) { s.engine = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *PlanningService) { s.now = now }
}

// NewPlanningService serves the baseline dataset merged with the custom
// records kept in custom.
func NewPlanningService(custom store.RecordStore, opts ...Option) *PlanningService {
	s := &PlanningService{
		records: adapters.NewBaselineStore(custom, baseline.Load()),
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.New(engine.WithLogger(s.logger))
	}
	return s
}

func (s *PlanningService) TeamMembers(ctx context.Context) ([]core.TeamMember, error) {
	return s.records.ListTeamMembers(ctx)
}

func (s *PlanningService) OpexExpenses(ctx context.Context) ([]core.OpexExpense, error) {
	return s.records.ListOpexExpenses(ctx)
}

func (s *PlanningService) WholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error) {
	return s.records.ListWholesaleDeals(ctx)
}

func (s *PlanningService) stamp(m *core.Meta) {
	m.ID = s.newID()
	m.Origin = core.OriginCustom
	m.CreatedAt = s.now().UTC()
}

// AddTeamMember validates m, assigns its identity and stores it.
func (s *PlanningService) AddTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error) {
	if err := m.Validate(); err != nil {
		return m, err
	}
	if m.Status == "" {
		m.Status = core.StatusActive
	}
	s.stamp(&m.Meta)
	if err := s.records.SaveTeamMember(ctx, m); err != nil {
		return m, fmt.Errorf("save team member: %w", err)
	}
	s.changed(ctx, store.KindTeam, m.ID, m.StartDate.Year())
	return m, nil
}

// AddOpexExpense derives the annual cost from the entered amount when it
// is not given. A missing frequency means Monthly.
func (s *PlanningService) AddOpexExpense(ctx context.Context, e core.OpexExpense) (core.OpexExpense, error) {
	if e.Frequency == "" {
		e.Frequency = core.Monthly
	}
	if e.AnnualCost.IsZero() {
		e.AnnualCost = core.DeriveAnnualCost(e.Frequency, e.MonthlyAmount)
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	s.stamp(&e.Meta)
	if err := s.records.SaveOpexExpense(ctx, e); err != nil {
		return e, fmt.Errorf("save opex expense: %w", err)
	}
	s.changed(ctx, store.KindOpex, e.ID, e.StartDate.Year())
	return e, nil
}

func (s *PlanningService) AddWholesaleDeal(ctx context.Context, d core.WholesaleDeal) (core.WholesaleDeal, error) {
	if err := d.Validate(); err != nil {
		return d, err
	}
	s.stamp(&d.Meta)
	if err := s.records.SaveWholesaleDeal(ctx, d); err != nil {
		return d, fmt.Errorf("save wholesale deal: %w", err)
	}
	year := 0
	if when, ok := d.RecognitionDate(); ok {
		year = when.Year()
	}
	s.changed(ctx, store.KindWholesale, d.ID, year)
	return d, nil
}

// ClearCustom removes the custom records of kind. Clearing assumptions
// restores the defaults.
func (s *PlanningService) ClearCustom(ctx context.Context, kind store.Kind) (int, error) {
	n, err := s.records.ClearCustom(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Cleared custom records", "kind", kind, "count", n)
	s.changed(ctx, kind, "", 0)
	return n, nil
}

func (s *PlanningService) Assumptions(ctx context.Context) (core.Assumptions, error) {
	return s.records.LoadAssumptions(ctx)
}

func (s *PlanningService) SaveAssumptions(ctx context.Context, a core.Assumptions) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.records.SaveAssumptions(ctx, a); err != nil {
		return fmt.Errorf("save assumptions: %w", err)
	}
	s.changed(ctx, store.KindAssumptions, "", 0)
	return nil
}

func (s *PlanningService) LastUpdated(ctx context.Context, kind store.Kind) (time.Time, error) {
	return s.records.LastUpdated(ctx, kind)
}

// changed drops cached projections and announces the write.
func (s *PlanningService) changed(ctx context.Context, kind store.Kind, id string, year int) {
	if s.plCache != nil {
		s.plCache.Clear()
	}
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping records changed event", "kind", kind)
		return
	}
	msg := amqp.NewRecordsChangedMessage(string(kind), id, year)
	if err := s.publisher.PublishRecordsChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish records changed event",
			"kind", kind, "record_id", id, "error", err)
	}
}

// Rates overrides the DTC rates for one request; nil fields use the saved
// assumptions.
type Rates struct {
	Discount *decimal.Decimal
	Returns  *decimal.Decimal
}

// engineFor applies the saved COGS and pre-activation burden rates.
func (s *PlanningService) engineFor(a core.Assumptions) *engine.Engine {
	burden := s.engine.Burden()
	burden.Simplified = a.Burden
	return s.engine.With(engine.WithBurden(burden), engine.WithCogsRates(a.Cogs))
}

func (s *PlanningService) inputs(ctx context.Context, year int, a core.Assumptions, r Rates) (engine.Inputs, error) {
	in := engine.Inputs{
		Year:         year,
		DiscountRate: a.DTCDiscountRate,
		ReturnRate:   a.ReturnRate(year),
		AOV: map[core.ProductType]decimal.Decimal{
			core.ProductBeta:  a.BetaAOV,
			core.ProductAlpha: a.AlphaAOV,
			core.ProductGamma: a.GammaAOV,
		},
	}
	if r.Discount != nil {
		in.DiscountRate = *r.Discount
	}
	if r.Returns != nil {
		in.ReturnRate = *r.Returns
	}

	var err error
	if in.Team, err = s.records.ListTeamMembers(ctx); err != nil {
		return in, fmt.Errorf("load team: %w", err)
	}
	if in.Opex, err = s.records.ListOpexExpenses(ctx); err != nil {
		return in, fmt.Errorf("load opex: %w", err)
	}
	if in.Wholesale, err = s.records.ListWholesaleDeals(ctx); err != nil {
		return in, fmt.Errorf("load wholesale: %w", err)
	}
	return in, nil
}

func plCacheKey(in engine.Inputs) string {
	return fmt.Sprintf("%d|%s|%s", in.Year, in.DiscountRate, in.ReturnRate)
}

// ProfitAndLoss projects year from the current records and assumptions.
func (s *PlanningService) ProfitAndLoss(ctx context.Context, year int, r Rates) (core.ProfitAndLoss, error) {
	a, err := s.Assumptions(ctx)
	if err != nil {
		return core.ProfitAndLoss{}, fmt.Errorf("load assumptions: %w", err)
	}
	in, err := s.inputs(ctx, year, a, r)
	if err != nil {
		return core.ProfitAndLoss{}, err
	}

	key := plCacheKey(in)
	if s.plCache != nil {
		if pl, ok := s.plCache.Get(key); ok {
			s.logger.DebugContext(ctx, "P&L cache hit", "year", year)
			return pl, nil
		}
	}

	pl, err := s.engineFor(a).Combine(in)
	if err != nil {
		return pl, err
	}
	if s.plCache != nil {
		s.plCache.Set(key, pl)
	}
	return pl, nil
}

// Runway projects cash for year. A nil position uses the saved one.
func (s *PlanningService) Runway(ctx context.Context, year int, pos *core.CashPosition) (core.RunwayReport, error) {
	a, err := s.Assumptions(ctx)
	if err != nil {
		return core.RunwayReport{}, fmt.Errorf("load assumptions: %w", err)
	}
	if pos == nil {
		pos = &a.Position
	}
	pl, err := s.ProfitAndLoss(ctx, year, Rates{})
	if err != nil {
		return core.RunwayReport{}, err
	}
	return engine.ProjectRunway(*pos, pl), nil
}

// ProjectYears projects years consecutive years from year, compounding
// OpEx growth rates after the first.
func (s *PlanningService) ProjectYears(ctx context.Context, year, years int) ([]core.ProfitAndLoss, error) {
	a, err := s.Assumptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assumptions: %w", err)
	}
	in, err := s.inputs(ctx, year, a, Rates{})
	if err != nil {
		return nil, err
	}
	return s.engineFor(a).ProjectYears(in, years, func(y int) (decimal.Decimal, decimal.Decimal) {
		return a.DTCDiscountRate, a.ReturnRate(y)
	})
}

// DealMetrics looks a wholesale deal up by ID.
func (s *PlanningService) DealMetrics(ctx context.Context, id string) (core.WholesaleDeal, core.DealMetrics, error) {
	deals, err := s.records.ListWholesaleDeals(ctx)
	if err != nil {
		return core.WholesaleDeal{}, core.DealMetrics{}, err
	}
	a, err := s.Assumptions(ctx)
	if err != nil {
		return core.WholesaleDeal{}, core.DealMetrics{}, fmt.Errorf("load assumptions: %w", err)
	}
	for _, d := range deals {
		if d.ID == id {
			return d, s.engineFor(a).DealMetrics(d), nil
		}
	}
	return core.WholesaleDeal{}, core.DealMetrics{}, fmt.Errorf("deal %s: %w", id, store.ErrNotFound)
}

// Breakdown is the annual cost split used by the planning views.
type Breakdown struct {
	Year        int                                 `json:"year"`
	Members     []engine.MemberCost                 `json:"members"`
	Departments map[core.Department]decimal.Decimal `json:"departments"`
	Categories  map[string]decimal.Decimal          `json:"categories"`
}

func (s *PlanningService) Breakdown(ctx context.Context, year int) (Breakdown, error) {
	a, err := s.Assumptions(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("load assumptions: %w", err)
	}
	in, err := s.inputs(ctx, year, a, Rates{})
	if err != nil {
		return Breakdown{}, err
	}
	e := s.engineFor(a)
	return Breakdown{
		Year:        year,
		Members:     e.TeamBreakdown(in.Team, year),
		Departments: e.DepartmentCosts(in.Team, year),
		Categories:  e.OpexByCategory(in.Opex, year),
	}, nil
}

// Ready checks that the record store answers.
func (s *PlanningService) Ready(ctx context.Context) error {
	if _, err := s.records.LastUpdated(ctx, store.KindTeam); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
