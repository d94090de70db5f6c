package engine

import (
	"errors"
	"fmt"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// Inputs is one P&L request: a snapshot of the records plus the scalar
// assumptions that drive the DTC forecast.
type Inputs struct {
	Year         int
	Team         []core.TeamMember
	Opex         []core.OpexExpense
	Wholesale    []core.WholesaleDeal
	DiscountRate decimal.Decimal
	ReturnRate   decimal.Decimal
	// AOV overrides the forecast's average order value per product.
	AOV map[core.ProductType]decimal.Decimal
}

func (in Inputs) Validate() error {
	if in.Year < 1 {
		return fmt.Errorf("%w: %d", core.ErrInvalidYear, in.Year)
	}
	if err := core.ValidateRate(in.DiscountRate); err != nil {
		return fmt.Errorf("discount rate: %w", err)
	}
	if err := core.ValidateRate(in.ReturnRate); err != nil {
		return fmt.Errorf("return rate: %w", err)
	}
	return nil
}

// Combine runs the four allocators and merges them into twelve P&L rows in
// calendar order.
//
// A year with no DTC forecast is not an error: DTC figures are zero and
// DTCForecast is false on the result.
func (e *Engine) Combine(in Inputs) (core.ProfitAndLoss, error) {
	pl := core.ProfitAndLoss{Year: in.Year}
	if err := in.Validate(); err != nil {
		return pl, err
	}

	team := e.AllocateTeam(in.Team, in.Year)
	opex := e.AllocateOpex(in.Opex, in.Year)
	wsRev, wsCogs := e.AllocateWholesale(in.Wholesale, in.Year)

	dtc, err := e.ProjectDTC(in.Year, in.DiscountRate, in.ReturnRate, in.AOV)
	switch {
	case errors.Is(err, ErrNoForecast):
		e.logger.Warn("No DTC forecast, projecting zero DTC revenue", "year", in.Year)
	case err != nil:
		return pl, err
	default:
		pl.DTCForecast = true
	}

	for i := range pl.Rows {
		pl.Rows[i] = core.NewPLRow(i+1,
			dtc.Revenue[i], wsRev[i],
			dtc.Cogs[i], wsCogs[i],
			team[i], opex[i],
		)
	}
	pl.Totals = core.SumRows(pl.Rows)
	return pl, nil
}
