package engine

import (
	"fmt"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// growthFactor is (1+rate)^years.
func growthFactor(rate decimal.Decimal, years int) decimal.Decimal {
	f := decimal.NewFromInt(1)
	step := f.Add(rate)
	for range years {
		f = f.Mul(step)
	}
	return f
}

// ApplyGrowth returns copies of expenses carried yearsAhead years forward,
// compounding each expense's growth rate on its monthly amount and annual
// cost. Dates are kept, so ended and one-time expenses drop out of later
// years naturally. Growth never applies within a year: yearsAhead <= 0
// returns the expenses unchanged.
func ApplyGrowth(expenses []core.OpexExpense, yearsAhead int) []core.OpexExpense {
	out := make([]core.OpexExpense, len(expenses))
	copy(out, expenses)
	if yearsAhead <= 0 {
		return out
	}
	for i, exp := range out {
		if exp.GrowthRate.IsZero() {
			continue
		}
		f := growthFactor(exp.GrowthRate, yearsAhead)
		out[i].MonthlyAmount = exp.MonthlyAmount.Mul(f)
		out[i].AnnualCost = exp.AnnualCost.Mul(f)
	}
	return out
}

// RateFunc returns the DTC discount and return rates to use for a year.
type RateFunc func(year int) (discount, returns decimal.Decimal)

// ProjectYears projects years consecutive years starting at in.Year. The
// first year is exactly Combine(in); each later year carries the first
// year's expenses forward with ApplyGrowth. rates may be nil, in which case
// the rates in in are used for every year.
func (e *Engine) ProjectYears(in Inputs, years int, rates RateFunc) ([]core.ProfitAndLoss, error) {
	if years < 1 {
		return nil, fmt.Errorf("%w: need at least one year, got %d", core.ErrInvalidYear, years)
	}
	out := make([]core.ProfitAndLoss, 0, years)
	for n := range years {
		yi := in
		yi.Year = in.Year + n
		yi.Opex = ApplyGrowth(in.Opex, n)
		if rates != nil {
			yi.DiscountRate, yi.ReturnRate = rates(yi.Year)
		}
		pl, err := e.Combine(yi)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", yi.Year, err)
		}
		out = append(out, pl)
	}
	return out, nil
}
