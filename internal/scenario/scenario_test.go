package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finplan/internal/baseline"
	"finplan/internal/core"
	"finplan/internal/services"
	"finplan/internal/store/memory"

	"github.com/shopspring/decimal"
)

const hireScenario = `
name: hire a designer
year: 2026
assumptions:
  dtc_discount_pct: 0.05
  starting_cash: "60000"
team:
  - first_name: Robin
    last_name: Vale
    title: Designer
    department: Research & Development
    employment_type: Contractor (1099)
    annual_salary: 36000
    start_date: 2026-07-01
opex:
  - expense_name: Design tools
    category: Software
    frequency: Monthly
    monthly_amount: 120
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(hireScenario))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "hire a designer" || s.Year != 2026 {
		t.Fatalf("unexpected header %+v", s)
	}
	if s.Assumptions.DiscountRate == nil || !s.Assumptions.DiscountRate.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("discount = %v", s.Assumptions.DiscountRate)
	}
	if s.Assumptions.ReturnRate != nil {
		t.Fatal("unset override should stay nil")
	}
	if len(s.Team) != 1 || s.Team[0].StartDate != core.NewDate(2026, 7, 1) {
		t.Fatalf("unexpected team %+v", s.Team)
	}
	if !s.Opex[0].MonthlyAmount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("monthly amount = %s", s.Opex[0].MonthlyAmount)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed", yaml: "team: [unclosed"},
		{name: "bad year", yaml: "year: 1850"},
		{name: "bad decimal", yaml: "assumptions:\n  beta_aov: lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hire.yaml")
	if err := os.WriteFile(path, []byte(hireScenario), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOverridesApply(t *testing.T) {
	year := 2028
	five := decimal.RequireFromString("0.05")
	o := Overrides{DiscountRate: &five, ApplyReturnsYear: &year}

	base := baseline.DefaultAssumptions()
	got := o.Apply(base)
	if !got.DTCDiscountRate.Equal(five) || got.ApplyReturnsYear != 2028 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if !got.BetaAOV.Equal(base.BetaAOV) || !got.Position.StartingCash.Equal(base.Position.StartingCash) {
		t.Fatal("unset overrides changed values")
	}
}

func TestApplyToForkLeavesSourceUntouched(t *testing.T) {
	ctx := context.Background()
	src := memory.New()

	fork, err := Fork(ctx, src)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	svc := services.NewPlanningService(fork,
		services.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		services.WithClock(func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }))

	s, err := Parse([]byte(hireScenario))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := s.ApplyTo(ctx, svc); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}

	team, _ := svc.TeamMembers(ctx)
	if len(team) != len(baseline.Team())+1 {
		t.Fatalf("team = %d", len(team))
	}
	a, _ := svc.Assumptions(ctx)
	if !a.Position.StartingCash.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("starting cash = %s", a.Position.StartingCash)
	}

	if custom, _ := src.ListTeamMembers(ctx); len(custom) != 0 {
		t.Fatalf("source store modified: %d members", len(custom))
	}
	if _, err := src.LoadAssumptions(ctx); err == nil {
		t.Fatal("source assumptions should remain unset")
	}
}

func TestApplyToStopsOnRejectedRecord(t *testing.T) {
	ctx := context.Background()
	svc := services.NewPlanningService(memory.New(),
		services.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	s := &Scenario{Opex: []core.OpexExpense{{Name: "Nothing", Frequency: core.Monthly}}}
	err := s.ApplyTo(ctx, svc)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
