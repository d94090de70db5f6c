package engine

import (
	"errors"
	"testing"

	"finplan/internal/baseline"
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func baselineInputs(year int) Inputs {
	ds := baseline.Load()
	return Inputs{
		Year:      year,
		Team:      ds.Team,
		Opex:      ds.Opex,
		Wholesale: ds.Wholesale,
	}
}

func TestAllocateWholesale(t *testing.T) {
	e := newTestEngine()
	override := dec("77770")
	deals := []core.WholesaleDeal{
		{NumPairs: 500, WholesalePrice: dec("144"), CloseDate: date("2026-02-20"), DeliveryDate: date("2026-03-15"), TotalCost: &override},
		{NumPairs: 100, WholesalePrice: dec("100"), CloseDate: date("2026-06-01")},
		{NumPairs: 100, WholesalePrice: dec("100"), CloseDate: date("2025-12-01")},
		{NumPairs: 100, WholesalePrice: dec("100")},
	}
	rev, cogs := e.AllocateWholesale(deals, 2026)

	assertAmount(t, "march revenue", rev.Month(3), dec("72000"))
	assertAmount(t, "march cogs", cogs.Month(3), dec("77770"))
	assertAmount(t, "february revenue", rev.Month(2), decimal.Zero)
	assertAmount(t, "june revenue", rev.Month(6), dec("10000"))
	// default rates total 40%
	assertAmount(t, "june cogs", cogs.Month(6), dec("4000"))
	assertAmount(t, "total revenue", rev.Total(), dec("82000"))
}

func TestProjectDTC(t *testing.T) {
	e := newTestEngine()

	got, err := e.ProjectDTC(2026, dec("0.10"), dec("0.20"), nil)
	if err != nil {
		t.Fatalf("ProjectDTC: %v", err)
	}
	// january: 10 beta units at 250
	assertAmount(t, "gross", got.Gross.Month(1), dec("2500"))
	assertAmount(t, "revenue", got.Revenue.Month(1), dec("1800"))
	assertAmount(t, "cogs on gross", got.Cogs.Month(1), dec("1000"))
	// july: 200 beta + 50 alpha
	assertAmount(t, "july gross", got.Gross.Month(7), dec("72500"))
	assertAmount(t, "annual gross", got.Gross.Total(), dec("911250"))

	got, err = e.ProjectDTC(2026, decimal.Zero, decimal.Zero, map[core.ProductType]decimal.Decimal{core.ProductBeta: dec("300")})
	if err != nil {
		t.Fatalf("ProjectDTC with override: %v", err)
	}
	assertAmount(t, "aov override", got.Revenue.Month(1), dec("3000"))

	if _, err := e.ProjectDTC(2030, decimal.Zero, decimal.Zero, nil); !errors.Is(err, ErrNoForecast) {
		t.Fatalf("expected ErrNoForecast, got %v", err)
	}
	if _, err := e.ProjectDTC(2026, dec("1.5"), decimal.Zero, nil); !errors.Is(err, core.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestScheduleRegistry(t *testing.T) {
	r := NewScheduleRegistry()
	if err := r.Register(Schedule{Year: 2031, CogsRate: dec("2")}); err == nil {
		t.Fatalf("expected invalid COGS rate to be rejected")
	}
	s := Schedule{
		Year:     2031,
		CogsRate: dec("0.5"),
		Lines:    []ProductLine{{Product: core.ProductGamma, AOV: dec("188"), Units: [12]int64{1}}},
	}
	if err := r.Register(s); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if years := r.Years(); len(years) != 1 || years[0] != 2031 {
		t.Fatalf("unexpected years %v", years)
	}

	e := newTestEngine(WithForecasts(r))
	got, err := e.ProjectDTC(2031, decimal.Zero, decimal.Zero, nil)
	if err != nil {
		t.Fatalf("ProjectDTC: %v", err)
	}
	assertAmount(t, "january", got.Revenue.Month(1), dec("188"))
	assertAmount(t, "cogs", got.Cogs.Month(1), dec("94"))
}

func TestCombineBaseline(t *testing.T) {
	e := newTestEngine()
	pl, err := e.Combine(baselineInputs(2026))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if !pl.DTCForecast {
		t.Fatalf("2026 has a DTC forecast")
	}
	for i, r := range pl.Rows {
		if r.Month != i+1 {
			t.Fatalf("row %d has month %d", i, r.Month)
		}
	}

	assertAmount(t, "march wholesale", pl.Rows[2].WholesaleRevenue, dec("72000"))
	assertAmount(t, "august wholesale", pl.Rows[7].WholesaleRevenue, dec("216000"))
	assertAmount(t, "annual wholesale", pl.Totals.WholesaleRevenue, dec("288000"))
	assertAmount(t, "annual wholesale cogs", pl.Totals.WholesaleCogs, dec("216645"))
	assertAmount(t, "annual dtc", pl.Totals.DTCRevenue, dec("911250"))

	jan := pl.Rows[0]
	assertAmount(t, "january team", jan.TeamCosts, dec("18812.50"))
	assertAmount(t, "january opex", jan.OtherOpex, dec("31700"))
	assertAmount(t, "january ebitda", jan.EBITDA, dec("-49012.50"))
	assertAmount(t, "march opex", pl.Rows[2].OtherOpex, dec("29450"))
	assertAmount(t, "may team", pl.Rows[4].TeamCosts, dec("27886.71"))

	assertAmount(t, "annual team", pl.Totals.TeamCosts, dec("298343.68"))
	assertAmount(t, "annual opex", pl.Totals.OtherOpex, dec("357900"))
}

func TestCombineIdempotent(t *testing.T) {
	e := newTestEngine()
	in := baselineInputs(2026)
	in.DiscountRate = dec("0.1")
	in.ReturnRate = dec("0.2")

	a, err := e.Combine(in)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	b, err := e.Combine(in)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for i := range a.Rows {
		if !a.Rows[i].EBITDA.Equal(b.Rows[i].EBITDA) || !a.Rows[i].TotalRevenue.Equal(b.Rows[i].TotalRevenue) {
			t.Fatalf("month %d differs between identical calls", i+1)
		}
	}
}

func TestCombineAdditivity(t *testing.T) {
	e := newTestEngine()
	pl, err := e.Combine(baselineInputs(2026))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for _, r := range pl.Rows {
		if !r.TotalRevenue.Equal(r.DTCRevenue.Add(r.WholesaleRevenue)) {
			t.Fatalf("month %d: total revenue is not the channel sum", r.Month)
		}
		if !r.EBITDA.Equal(r.TotalRevenue.Sub(r.TotalCogs).Sub(r.TotalOpex)) {
			t.Fatalf("month %d: ebitda does not reconcile", r.Month)
		}
		if !r.TotalOpex.Equal(r.TeamCosts.Add(r.OtherOpex)) {
			t.Fatalf("month %d: opex does not reconcile", r.Month)
		}
	}
}

func TestCombineWithoutForecast(t *testing.T) {
	e := newTestEngine()
	pl, err := e.Combine(baselineInputs(2030))
	if err != nil {
		t.Fatalf("a missing forecast should not fail the P&L: %v", err)
	}
	if pl.DTCForecast {
		t.Fatalf("DTCForecast should be false for 2030")
	}
	for _, r := range pl.Rows {
		if !r.TotalRevenue.IsZero() {
			t.Fatalf("month %d: expected zero revenue, got %s", r.Month, r.TotalRevenue)
		}
		if !r.GrossMarginPct.IsZero() || !r.EBITDAMarginPct.IsZero() {
			t.Fatalf("month %d: margins must be zero without revenue", r.Month)
		}
	}
	if !pl.Totals.TeamCosts.IsPositive() {
		t.Fatalf("team costs continue in years without a forecast")
	}
}

func TestCombineRejectsInvalidInputs(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		in   Inputs
		want error
	}{
		{"zero year", Inputs{}, core.ErrInvalidYear},
		{"negative discount", Inputs{Year: 2026, DiscountRate: dec("-0.1")}, core.ErrInvalidRate},
		{"return over one", Inputs{Year: 2026, ReturnRate: dec("1.1")}, core.ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Combine(tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProjectYears(t *testing.T) {
	e := newTestEngine()
	in := baselineInputs(2026)
	rates := func(year int) (decimal.Decimal, decimal.Decimal) {
		a := baseline.DefaultAssumptions()
		return a.DTCDiscountRate, a.ReturnRate(year)
	}
	years, err := e.ProjectYears(in, 2, rates)
	if err != nil {
		t.Fatalf("ProjectYears: %v", err)
	}
	if len(years) != 2 || years[1].Year != 2027 {
		t.Fatalf("unexpected years: %d", len(years))
	}
	// january 2027: performance marketing grows 5% (+500), the Klaviyo
	// migration rate (2500) has ended and the post-migration rate (250) runs
	first, second := years[0].Rows[0].OtherOpex, years[1].Rows[0].OtherOpex
	assertAmount(t, "growth delta", second.Sub(first), dec("-1750"))
	if !years[1].Totals.WholesaleRevenue.IsZero() {
		t.Fatalf("2026 deals must not recur in 2027")
	}

	if _, err := e.ProjectYears(in, 0, nil); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}
