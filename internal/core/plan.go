package core

import "github.com/shopspring/decimal"

// MonthlyAmounts holds one value per calendar month, index 0 = January.
type MonthlyAmounts [12]decimal.Decimal

// Month returns the value for month m (1-12).
func (a MonthlyAmounts) Month(m int) decimal.Decimal {
	return a[m-1]
}

// Add accumulates v into month m (1-12).
func (a *MonthlyAmounts) Add(m int, v decimal.Decimal) {
	a[m-1] = a[m-1].Add(v)
}

func (a MonthlyAmounts) Total() decimal.Decimal {
	return decimal.Sum(a[0], a[1:]...)
}

// Plus returns the element-wise sum.
func (a MonthlyAmounts) Plus(b MonthlyAmounts) MonthlyAmounts {
	var out MonthlyAmounts
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// MonthlyPLRow is one month of the projected P&L.
type MonthlyPLRow struct {
	Month            int             `json:"month"`
	DTCRevenue       decimal.Decimal `json:"dtc_revenue"`
	WholesaleRevenue decimal.Decimal `json:"wholesale_revenue"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	DTCCogs          decimal.Decimal `json:"dtc_cogs"`
	WholesaleCogs    decimal.Decimal `json:"wholesale_cogs"`
	TotalCogs        decimal.Decimal `json:"total_cogs"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	GrossMarginPct   decimal.Decimal `json:"gross_margin_pct"`
	TeamCosts        decimal.Decimal `json:"team_costs"`
	OtherOpex        decimal.Decimal `json:"other_opex"`
	TotalOpex        decimal.Decimal `json:"total_opex"`
	EBITDA           decimal.Decimal `json:"ebitda"`
	EBITDAMarginPct  decimal.Decimal `json:"ebitda_margin_pct"`
}

// NewPLRow derives totals and margins from the six source figures, which
// are rounded to cents first. Margins are kept to two decimal places.
func NewPLRow(month int, dtcRev, wsRev, dtcCogs, wsCogs, team, opex decimal.Decimal) MonthlyPLRow {
	dtcRev, wsRev, dtcCogs, wsCogs = Cents(dtcRev), Cents(wsRev), Cents(dtcCogs), Cents(wsCogs)
	team, opex = Cents(team), Cents(opex)
	r := MonthlyPLRow{
		Month:            month,
		DTCRevenue:       dtcRev,
		WholesaleRevenue: wsRev,
		DTCCogs:          dtcCogs,
		WholesaleCogs:    wsCogs,
		TeamCosts:        team,
		OtherOpex:        opex,
	}
	r.TotalRevenue = dtcRev.Add(wsRev)
	r.TotalCogs = dtcCogs.Add(wsCogs)
	r.GrossProfit = r.TotalRevenue.Sub(r.TotalCogs)
	r.GrossMarginPct = MarginPct(r.GrossProfit, r.TotalRevenue).Round(2)
	r.TotalOpex = team.Add(opex)
	r.EBITDA = r.GrossProfit.Sub(r.TotalOpex)
	r.EBITDAMarginPct = MarginPct(r.EBITDA, r.TotalRevenue).Round(2)
	return r
}

// ProfitAndLoss is a full projected year.
type ProfitAndLoss struct {
	Year int              `json:"year"`
	Rows [12]MonthlyPLRow `json:"rows"`
	// DTCForecast is false when no DTC schedule exists for Year and DTC
	// figures are zero for that reason.
	DTCForecast bool         `json:"dtc_forecast"`
	Totals      MonthlyPLRow `json:"totals"`
}

// SumRows totals the rows; margins are recomputed on the annual figures.
// The returned row has Month 0.
func SumRows(rows [12]MonthlyPLRow) MonthlyPLRow {
	var dtcRev, wsRev, dtcCogs, wsCogs, team, opex decimal.Decimal
	for _, r := range rows {
		dtcRev = dtcRev.Add(r.DTCRevenue)
		wsRev = wsRev.Add(r.WholesaleRevenue)
		dtcCogs = dtcCogs.Add(r.DTCCogs)
		wsCogs = wsCogs.Add(r.WholesaleCogs)
		team = team.Add(r.TeamCosts)
		opex = opex.Add(r.OtherOpex)
	}
	return NewPLRow(0, dtcRev, wsRev, dtcCogs, wsCogs, team, opex)
}

// CashPosition is the opening balance sheet used by the runway projection.
type CashPosition struct {
	StartingCash       decimal.Decimal `json:"starting_cash" yaml:"starting_cash"`
	AccountsReceivable decimal.Decimal `json:"accounts_receivable" yaml:"accounts_receivable"`
	AccountsPayable    decimal.Decimal `json:"accounts_payable" yaml:"accounts_payable"`
}

// NetCash is cash plus receivables minus payables.
func (p CashPosition) NetCash() decimal.Decimal {
	return p.StartingCash.Add(p.AccountsReceivable).Sub(p.AccountsPayable)
}

// NotBurningDays is the days-of-cash cap, also used when there is no burn.
const NotBurningDays = 999

type RunwayRow struct {
	Month      int             `json:"month"`
	CashIn     decimal.Decimal `json:"cash_in"`
	CashOut    decimal.Decimal `json:"cash_out"`
	NetFlow    decimal.Decimal `json:"net_flow"`
	EndingCash decimal.Decimal `json:"ending_cash"`
	BurnRate   decimal.Decimal `json:"burn_rate"`
	DaysOfCash decimal.Decimal `json:"days_of_cash"`
}

// Burning reports a positive burn rate in this month.
func (r RunwayRow) Burning() bool {
	return r.BurnRate.IsPositive()
}

// RunwayInsights summarises a runway projection.
type RunwayInsights struct {
	OpeningCash decimal.Decimal `json:"opening_cash"`
	EndingCash  decimal.Decimal `json:"ending_cash"`
	// CashOutMonth is the first month with negative ending cash, 0 if none.
	CashOutMonth int `json:"cash_out_month"`
	// BreakevenMonth is the first month with non-negative net flow, 0 if none.
	BreakevenMonth int             `json:"breakeven_month"`
	MinEndingCash  decimal.Decimal `json:"min_ending_cash"`
	FundingNeed    decimal.Decimal `json:"funding_need"`

	// NetBurnFirst3 is average cash out minus average cash in over Jan-Mar.
	NetBurnFirst3 decimal.Decimal `json:"net_burn_first_3"`
	// DaysOfCash is the opening cash divided by the daily NetBurnFirst3.
	DaysOfCash decimal.Decimal `json:"days_of_cash"`

	AvgCashInFirst6  decimal.Decimal `json:"avg_cash_in_first_6"`
	AvgCashOutFirst6 decimal.Decimal `json:"avg_cash_out_first_6"`
	AvgBurnFirst6    decimal.Decimal `json:"avg_burn_first_6"`
	// RevenueCoverPct is the share of first-half costs covered by revenue.
	RevenueCoverPct decimal.Decimal `json:"revenue_cover_pct"`
}

type RunwayReport struct {
	Year     int            `json:"year"`
	Position CashPosition   `json:"position"`
	Rows     [12]RunwayRow  `json:"rows"`
	Insights RunwayInsights `json:"insights"`
}
