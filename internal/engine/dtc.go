package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// ErrNoForecast is returned when no DTC schedule exists for a year.
var ErrNoForecast = errors.New("no DTC forecast for year")

// DefaultDTCCogsRate is the COGS share of gross DTC sales.
var DefaultDTCCogsRate = decimal.RequireFromString("0.40")

// ProductLine is a monthly unit forecast for one product.
type ProductLine struct {
	Product core.ProductType `json:"product" yaml:"product"`
	Units   [12]int64        `json:"units" yaml:"units"`
	AOV     decimal.Decimal  `json:"aov" yaml:"aov"`
}

// Gross returns units times AOV for month m (1-12).
func (p ProductLine) Gross(m int, aov decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(p.Units[m-1]).Mul(aov)
}

// Schedule is the DTC forecast for one year.
type Schedule struct {
	Year     int             `json:"year" yaml:"year"`
	Lines    []ProductLine   `json:"lines" yaml:"lines"`
	CogsRate decimal.Decimal `json:"cogs_rate" yaml:"cogs_rate"`
}

func (s Schedule) Validate() error {
	if s.Year < 1 {
		return fmt.Errorf("%w: %d", core.ErrInvalidYear, s.Year)
	}
	if err := core.ValidateRate(s.CogsRate); err != nil {
		return fmt.Errorf("cogs rate: %w", err)
	}
	for _, l := range s.Lines {
		if !l.Product.IsValid() {
			return fmt.Errorf("%w: product %q", core.ErrInvalidEnum, l.Product)
		}
		if l.AOV.IsNegative() {
			return fmt.Errorf("%w: aov for %s", core.ErrInvalidAmount, l.Product)
		}
		for _, u := range l.Units {
			if u < 0 {
				return fmt.Errorf("%w: negative units for %s", core.ErrInvalidAmount, l.Product)
			}
		}
	}
	return nil
}

// ForecastProvider supplies DTC schedules by year.
type ForecastProvider interface {
	// Schedule returns ErrNoForecast when year is not covered.
	Schedule(year int) (Schedule, error)
}

// ScheduleRegistry is an in-memory ForecastProvider.
type ScheduleRegistry struct {
	mu        sync.RWMutex
	schedules map[int]Schedule
}

func NewScheduleRegistry(schedules ...Schedule) *ScheduleRegistry {
	r := &ScheduleRegistry{schedules: make(map[int]Schedule)}
	for _, s := range schedules {
		r.schedules[s.Year] = s
	}
	return r
}

// Register validates s and replaces any schedule for the same year.
func (r *ScheduleRegistry) Register(s Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.Year] = s
	return nil
}

func (r *ScheduleRegistry) Schedule(year int) (Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[year]
	if !ok {
		return Schedule{}, fmt.Errorf("%w %d", ErrNoForecast, year)
	}
	return s, nil
}

// Years lists covered years in ascending order.
func (r *ScheduleRegistry) Years() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	years := make([]int, 0, len(r.schedules))
	for y := range r.schedules {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

func ramp(from, step int64) [12]int64 {
	var u [12]int64
	for i := range u {
		u[i] = from + int64(i)*step
	}
	return u
}

// DefaultForecasts returns the built-in 2026 and 2027 schedules.
func DefaultForecasts() *ScheduleRegistry {
	beta := decimal.NewFromInt(250)
	alpha := decimal.NewFromInt(450)
	return NewScheduleRegistry(
		Schedule{
			Year: 2026,
			Lines: []ProductLine{
				{Product: core.ProductBeta, AOV: beta, Units: [12]int64{10, 20, 30, 50, 100, 150, 200, 225, 250, 275, 300, 325}},
				{Product: core.ProductAlpha, AOV: alpha, Units: [12]int64{0, 0, 0, 0, 0, 0, 50, 100, 200, 300, 300, 0}},
			},
			CogsRate: DefaultDTCCogsRate,
		},
		Schedule{
			Year: 2027,
			Lines: []ProductLine{
				{Product: core.ProductBeta, AOV: beta, Units: ramp(350, 50)},
				{Product: core.ProductAlpha, AOV: alpha, Units: ramp(300, 50)},
			},
			CogsRate: DefaultDTCCogsRate,
		},
	)
}

// DTCProjection is the projected DTC channel for a year.
type DTCProjection struct {
	Gross   core.MonthlyAmounts `json:"gross"`
	Revenue core.MonthlyAmounts `json:"revenue"`
	Cogs    core.MonthlyAmounts `json:"cogs"`
}

// ProjectDTC applies discount and return rates to the schedule for year.
// Revenue is gross × (1 − discount) × (1 − returns); COGS is a fixed share
// of gross. aov overrides the schedule's AOV per product when present.
func (e *Engine) ProjectDTC(year int, discount, returns decimal.Decimal, aov map[core.ProductType]decimal.Decimal) (DTCProjection, error) {
	var out DTCProjection
	if err := core.ValidateRate(discount); err != nil {
		return out, fmt.Errorf("discount rate: %w", err)
	}
	if err := core.ValidateRate(returns); err != nil {
		return out, fmt.Errorf("return rate: %w", err)
	}
	s, err := e.forecasts.Schedule(year)
	if err != nil {
		return out, err
	}
	net := decimal.NewFromInt(1).Sub(discount).Mul(decimal.NewFromInt(1).Sub(returns))
	for _, line := range s.Lines {
		price := line.AOV
		if v, ok := aov[line.Product]; ok && v.IsPositive() {
			price = v
		}
		for m := 1; m <= 12; m++ {
			gross := line.Gross(m, price)
			out.Gross.Add(m, gross)
			out.Revenue.Add(m, gross.Mul(net))
			out.Cogs.Add(m, gross.Mul(s.CogsRate))
		}
	}
	return out, nil
}
