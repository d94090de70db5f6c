package baseline

import (
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// ActualsYear is the year covered by Actuals.
const ActualsYear = 2025

// MonthlyActuals are booked results for a closed year, by line.
type MonthlyActuals struct {
	Year           int                 `json:"year"`
	DTCRevenue     core.MonthlyAmounts `json:"dtc_revenue"`
	Wholesale      core.MonthlyAmounts `json:"wholesale_revenue"`
	Cogs           core.MonthlyAmounts `json:"cogs"`
	SalesMarketing core.MonthlyAmounts `json:"sales_marketing"`
	Payroll        core.MonthlyAmounts `json:"payroll"`
	Other          core.MonthlyAmounts `json:"other"`
}

func amounts(vals ...string) core.MonthlyAmounts {
	var out core.MonthlyAmounts
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// Actuals returns the 2025 management-report figures.
func Actuals() MonthlyActuals {
	return MonthlyActuals{
		Year:           ActualsYear,
		DTCRevenue:     amounts("4269.90", "2997.05", "1406.00", "4908.21", "4348.01", "5232.04", "8912.02", "5228.85", "5504.82", "6270.06", "6044.05", "19407.51"),
		Wholesale:      amounts("2433.00", "0", "0", "0", "1612.86", "0", "0", "0", "14688.31", "0", "6285.12", "1292.00"),
		Cogs:           amounts("1494.65", "18212.83", "5012.17", "9558.23", "1582.81", "3235.61", "5828.99", "3905.49", "979.12", "1383.98", "21838.11", "21752.95"),
		SalesMarketing: amounts("1200", "1200", "11319.01", "27200", "8741", "1200", "7077.13", "7544.26", "15700", "15900", "8396.80", "27717.73"),
		Payroll:        amounts("0", "1483.75", "4473.02", "2000", "2411.90", "1552.50", "1911.01", "2960", "4641.50", "2694.75", "2736.10", "2602.05"),
		Other:          amounts("701.07", "2146.80", "672.47", "2108.27", "1754.80", "7947.23", "180.23", "9592.98", "13735.48", "9714.85", "9727.07", "7357.56"),
	}
}

// ProfitAndLoss folds the actuals into the same row shape as a projection.
// Actuals do not split COGS by channel, so all COGS is reported as DTC.
func (a MonthlyActuals) ProfitAndLoss() core.ProfitAndLoss {
	pl := core.ProfitAndLoss{Year: a.Year}
	for i := range pl.Rows {
		opex := a.SalesMarketing[i].Add(a.Other[i])
		pl.Rows[i] = core.NewPLRow(i+1, a.DTCRevenue[i], a.Wholesale[i], a.Cogs[i], decimal.Zero, a.Payroll[i], opex)
	}
	pl.Totals = core.SumRows(pl.Rows)
	return pl
}
