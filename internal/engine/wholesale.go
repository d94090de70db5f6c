package engine

import "finplan/internal/core"

// AllocateWholesale returns wholesale revenue and COGS per month of year.
// A deal lands entirely in its recognition month: delivery date when set,
// close date otherwise. Deals with no usable date are skipped.
func (e *Engine) AllocateWholesale(deals []core.WholesaleDeal, year int) (revenue, cogs core.MonthlyAmounts) {
	for _, d := range deals {
		when, ok := d.RecognitionDate()
		if !ok {
			e.logger.Debug("Skipping deal with no close or delivery date", "id", d.ID, "customer", d.CustomerName)
			continue
		}
		if when.Year() != year {
			continue
		}
		revenue.Add(when.Month(), d.Revenue())
		cogs.Add(when.Month(), d.TotalCogs(e.cogs))
	}
	return revenue, cogs
}

// DealMetrics computes the per-deal profitability figures.
func (e *Engine) DealMetrics(d core.WholesaleDeal) core.DealMetrics {
	return d.Metrics(e.cogs)
}
