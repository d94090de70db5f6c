package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"finplan/internal/baseline"
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestEngine(opts ...Option) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func assertAmount(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Round(2).Equal(want.Round(2)) {
		t.Fatalf("%s: got %s, want %s", label, got.StringFixed(2), want.StringFixed(2))
	}
}

func TestBurdenThresholdAppliesEveryYear(t *testing.T) {
	e := newTestEngine()
	fte := core.TeamMember{
		FirstName:      "Test",
		EmploymentType: core.FullTime,
		AnnualSalary:   dec("60000"),
		StartDate:      date("2024-01-01"),
	}
	for _, year := range []int{2025, 2026, 2027} {
		got := e.AllocateTeam([]core.TeamMember{fte}, year)
		assertAmount(t, "january", got.Month(1), dec("5925"))
		assertAmount(t, "april", got.Month(4), dec("5925"))
		assertAmount(t, "may", got.Month(5), dec("6225.91"))
		assertAmount(t, "december", got.Month(12), dec("6225.91"))
	}

	pinned := baseline.Burden()
	pinned.StartYear = 2026
	e = newTestEngine(WithBurden(pinned))
	assertAmount(t, "pinned 2025 may", e.AllocateTeam([]core.TeamMember{fte}, 2025).Month(5), dec("5925"))
	assertAmount(t, "pinned 2027 january", e.AllocateTeam([]core.TeamMember{fte}, 2027).Month(1), dec("6225.91"))
}

func TestAllocateTeamBurdenThreshold(t *testing.T) {
	e := newTestEngine()
	fte := core.TeamMember{
		FirstName:      "Test",
		EmploymentType: core.FullTime,
		AnnualSalary:   dec("60000"),
		StartDate:      date("2026-01-01"),
	}
	contractor := fte
	contractor.EmploymentType = core.Contractor

	got := e.AllocateTeam([]core.TeamMember{fte}, 2026)
	for m := 1; m <= 4; m++ {
		// 5000 + 5000 * 0.185
		assertAmount(t, "simplified burden month", got.Month(m), dec("5925"))
	}
	for m := 5; m <= 12; m++ {
		// 5000 + 838.41 flat + 5000 * 0.0775
		assertAmount(t, "full burden month", got.Month(m), dec("6225.91"))
	}

	got = e.AllocateTeam([]core.TeamMember{contractor}, 2026)
	for m := 1; m <= 12; m++ {
		assertAmount(t, "contractor month", got.Month(m), dec("5000"))
	}
}

func TestAllocateTeamActiveMonths(t *testing.T) {
	e := newTestEngine()
	base := core.TeamMember{
		FirstName:      "Test",
		EmploymentType: core.Contractor,
		AnnualSalary:   dec("12000"),
	}

	tests := []struct {
		name  string
		start string
		term  string
		want  []int
	}{
		{"starts mid year", "2026-05-01", "", []int{5, 6, 7, 8, 9, 10, 11, 12}},
		{"starts mid month", "2026-05-20", "", []int{5, 6, 7, 8, 9, 10, 11, 12}},
		{"terminated", "2026-01-01", "2026-03-15", []int{1, 2, 3}},
		{"terminated on first", "2026-01-01", "2026-03-01", []int{1, 2, 3}},
		{"started earlier year", "2024-07-01", "", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"starts later year", "2027-07-01", "", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"no start date", "", "", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"terminated earlier year", "2024-01-01", "2025-06-30", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base
			m.StartDate = core.ParseOptionalDate(tt.start)
			m.TerminationDate = core.ParseOptionalDate(tt.term)
			got := e.AllocateTeam([]core.TeamMember{m}, 2026)

			active := map[int]bool{}
			for _, month := range tt.want {
				active[month] = true
			}
			for month := 1; month <= 12; month++ {
				want := decimal.Zero
				if active[month] {
					want = dec("1000")
				}
				if !got.Month(month).Equal(want) {
					t.Fatalf("month %d: got %s, want %s", month, got.Month(month), want)
				}
			}
		})
	}
}

func TestAllocateTeamSkipsZeroSalary(t *testing.T) {
	e := newTestEngine()
	got := e.AllocateTeam([]core.TeamMember{{FirstName: "Volunteer", EmploymentType: core.FullTime}}, 2026)
	if !got.Total().IsZero() {
		t.Fatalf("zero salary member should cost nothing, got %s", got.Total())
	}
}

func TestTeamBreakdown(t *testing.T) {
	e := newTestEngine()
	members := []core.TeamMember{
		{FirstName: "A", Department: core.SalesMarketing, EmploymentType: core.Contractor, AnnualSalary: dec("12000"), StartDate: date("2026-07-01")},
		{FirstName: "B", Department: core.SalesMarketing, EmploymentType: core.Contractor, AnnualSalary: dec("24000"), StartDate: date("2026-01-01")},
	}
	rows := e.TeamBreakdown(members, 2026)
	if rows[0].ActiveMonths != 6 {
		t.Fatalf("expected 6 active months, got %d", rows[0].ActiveMonths)
	}
	assertAmount(t, "salary", rows[0].Salary, dec("6000"))
	if !rows[0].Burden.IsZero() {
		t.Fatalf("contractor burden should be zero, got %s", rows[0].Burden)
	}
	assertAmount(t, "department", e.DepartmentCosts(members, 2026)[core.SalesMarketing], dec("30000"))
}

func TestProjectRunwayConstantBurn(t *testing.T) {
	pl := core.ProfitAndLoss{Year: 2026}
	for i := range pl.Rows {
		pl.Rows[i] = core.NewPLRow(i+1, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, dec("1000"), dec("2000"))
	}
	rep := ProjectRunway(core.CashPosition{StartingCash: dec("30000")}, pl)

	for i, r := range rep.Rows {
		wantCash := dec("30000").Sub(dec("3000").Mul(decimal.NewFromInt(int64(i + 1))))
		if !r.EndingCash.Equal(wantCash) {
			t.Fatalf("month %d ending cash: got %s, want %s", r.Month, r.EndingCash, wantCash)
		}
		if !r.BurnRate.Equal(dec("3000")) {
			t.Fatalf("month %d burn: got %s", r.Month, r.BurnRate)
		}
		// cash / (3000/30)
		if !r.DaysOfCash.Equal(wantCash.Div(dec("100"))) {
			t.Fatalf("month %d days: got %s", r.Month, r.DaysOfCash)
		}
	}

	ins := rep.Insights
	if ins.CashOutMonth != 11 {
		t.Fatalf("cash out month: got %d", ins.CashOutMonth)
	}
	if ins.BreakevenMonth != 0 {
		t.Fatalf("breakeven month: got %d", ins.BreakevenMonth)
	}
	assertAmount(t, "funding need", ins.FundingNeed, dec("6000"))
	assertAmount(t, "net burn", ins.NetBurnFirst3, dec("3000"))
	assertAmount(t, "days of cash", ins.DaysOfCash, dec("300"))
	if !ins.RevenueCoverPct.IsZero() {
		t.Fatalf("revenue cover should be zero, got %s", ins.RevenueCoverPct)
	}
}

func TestProjectRunwayNotBurning(t *testing.T) {
	pl := core.ProfitAndLoss{Year: 2026}
	for i := range pl.Rows {
		pl.Rows[i] = core.NewPLRow(i+1, dec("5000"), decimal.Zero, dec("1000"), decimal.Zero, decimal.Zero, dec("1000"))
	}
	pos := core.CashPosition{StartingCash: dec("1000"), AccountsReceivable: dec("500"), AccountsPayable: dec("250")}
	rep := ProjectRunway(pos, pl)

	assertAmount(t, "opening", rep.Insights.OpeningCash, dec("1250"))
	assertAmount(t, "month 1 cash", rep.Rows[0].EndingCash, dec("4250"))
	for _, r := range rep.Rows {
		if r.Burning() || !r.DaysOfCash.Equal(decimal.NewFromInt(core.NotBurningDays)) {
			t.Fatalf("month %d should not be burning: burn %s days %s", r.Month, r.BurnRate, r.DaysOfCash)
		}
	}
	if rep.Insights.BreakevenMonth != 1 {
		t.Fatalf("breakeven month: got %d", rep.Insights.BreakevenMonth)
	}
	assertAmount(t, "revenue cover", rep.Insights.RevenueCoverPct, dec("250"))
}

func TestDaysOfCashCapped(t *testing.T) {
	got := daysOfCash(dec("1000000"), dec("10"))
	if !got.Equal(decimal.NewFromInt(core.NotBurningDays)) {
		t.Fatalf("days should cap at %d, got %s", core.NotBurningDays, got)
	}
}

func TestEngineDefaultsFromBaseline(t *testing.T) {
	e := New()
	if e.Burden().StartMonth != baseline.Burden().StartMonth {
		t.Fatalf("default burden should come from the baseline dataset")
	}
	if !e.CogsRates().Total().Equal(dec("0.40")) {
		t.Fatalf("default COGS rates should total 40%%, got %s", e.CogsRates().Total())
	}
	if _, err := e.Forecasts().Schedule(2030); !errors.Is(err, ErrNoForecast) {
		t.Fatalf("expected ErrNoForecast, got %v", err)
	}
}
