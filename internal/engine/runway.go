package engine

import (
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

var (
	daysPerMonth = decimal.NewFromInt(30)
	daysCap      = decimal.NewFromInt(core.NotBurningDays)
)

// daysOfCash is cash divided by the daily burn, capped at NotBurningDays.
// A non-positive burn means not burning.
func daysOfCash(cash, monthlyBurn decimal.Decimal) decimal.Decimal {
	if !monthlyBurn.IsPositive() {
		return daysCap
	}
	days := cash.Div(monthlyBurn.Div(daysPerMonth))
	if days.GreaterThan(daysCap) {
		return daysCap
	}
	return days
}

// ProjectRunway folds the P&L into a month-by-month cash balance starting
// from the net cash position. Rows depend on every prior month and are
// produced strictly in calendar order.
func ProjectRunway(pos core.CashPosition, pl core.ProfitAndLoss) core.RunwayReport {
	rep := core.RunwayReport{Year: pl.Year, Position: pos}
	cash := pos.NetCash()
	for i, r := range pl.Rows {
		in := r.TotalRevenue
		out := r.TotalCogs.Add(r.TotalOpex)
		net := in.Sub(out)
		cash = cash.Add(net)
		burn := decimal.Max(decimal.Zero, net.Neg())
		rep.Rows[i] = core.RunwayRow{
			Month:      i + 1,
			CashIn:     in,
			CashOut:    out,
			NetFlow:    net,
			EndingCash: cash,
			BurnRate:   burn,
			DaysOfCash: daysOfCash(cash, burn),
		}
	}
	rep.Insights = insights(pos.NetCash(), rep.Rows)
	return rep
}

func average(rows []core.RunwayRow, field func(core.RunwayRow) decimal.Decimal) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(field(r))
	}
	return sum.Div(decimal.NewFromInt(int64(len(rows))))
}

func cashIn(r core.RunwayRow) decimal.Decimal   { return r.CashIn }
func cashOut(r core.RunwayRow) decimal.Decimal  { return r.CashOut }
func burnRate(r core.RunwayRow) decimal.Decimal { return r.BurnRate }

func insights(opening decimal.Decimal, rows [12]core.RunwayRow) core.RunwayInsights {
	ins := core.RunwayInsights{
		OpeningCash:   opening,
		EndingCash:    rows[11].EndingCash,
		MinEndingCash: rows[0].EndingCash,
	}
	for _, r := range rows {
		if ins.CashOutMonth == 0 && r.EndingCash.IsNegative() {
			ins.CashOutMonth = r.Month
		}
		if ins.BreakevenMonth == 0 && !r.NetFlow.IsNegative() {
			ins.BreakevenMonth = r.Month
		}
		if r.EndingCash.LessThan(ins.MinEndingCash) {
			ins.MinEndingCash = r.EndingCash
		}
	}
	if ins.MinEndingCash.IsNegative() {
		ins.FundingNeed = ins.MinEndingCash.Abs()
	}

	first3 := rows[:3]
	ins.NetBurnFirst3 = average(first3, cashOut).Sub(average(first3, cashIn))
	ins.DaysOfCash = daysOfCash(opening, ins.NetBurnFirst3)

	first6 := rows[:6]
	ins.AvgCashInFirst6 = average(first6, cashIn)
	ins.AvgCashOutFirst6 = average(first6, cashOut)
	ins.AvgBurnFirst6 = average(first6, burnRate)
	ins.RevenueCoverPct = core.MarginPct(ins.AvgCashInFirst6, ins.AvgCashOutFirst6)
	return ins
}
