// Package scenario loads what-if plans from YAML: assumption overrides and
// extra records layered over a copy of the stored plan.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"finplan/internal/core"
	"finplan/internal/store"
	"finplan/internal/store/memory"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Overrides replace individual assumptions; nil fields keep the current value.
type Overrides struct {
	BetaAOV          *decimal.Decimal `yaml:"beta_aov"`
	AlphaAOV         *decimal.Decimal `yaml:"alpha_aov"`
	GammaAOV         *decimal.Decimal `yaml:"gamma_aov"`
	DiscountRate     *decimal.Decimal `yaml:"dtc_discount_pct"`
	ReturnRate       *decimal.Decimal `yaml:"dtc_returns_pct"`
	ApplyReturnsYear *int             `yaml:"apply_returns_year"`
	BenefitsPct      *decimal.Decimal `yaml:"benefits_pct"`
	PayrollTaxesPct  *decimal.Decimal `yaml:"payroll_taxes_pct"`
	ProcessingPct    *decimal.Decimal `yaml:"processing_pct"`

	StartingCash       *decimal.Decimal `yaml:"starting_cash"`
	AccountsReceivable *decimal.Decimal `yaml:"accounts_receivable"`
	AccountsPayable    *decimal.Decimal `yaml:"accounts_payable"`
}

type Scenario struct {
	Name        string               `yaml:"name"`
	Year        int                  `yaml:"year"`
	Assumptions Overrides            `yaml:"assumptions"`
	Team        []core.TeamMember    `yaml:"team"`
	Opex        []core.OpexExpense   `yaml:"opex"`
	Wholesale   []core.WholesaleDeal `yaml:"wholesale"`
}

// Planner is the subset of the planning service a scenario writes through.
type Planner interface {
	Assumptions(ctx context.Context) (core.Assumptions, error)
	SaveAssumptions(ctx context.Context, a core.Assumptions) error
	AddTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error)
	AddOpexExpense(ctx context.Context, e core.OpexExpense) (core.OpexExpense, error)
	AddWholesaleDeal(ctx context.Context, d core.WholesaleDeal) (core.WholesaleDeal, error)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if s.Year != 0 && (s.Year < 2000 || s.Year > 2100) {
		return nil, fmt.Errorf("scenario year %d: %w", s.Year, core.ErrInvalidYear)
	}
	return &s, nil
}

// Apply returns a with every set override replaced.
func (o Overrides) Apply(a core.Assumptions) core.Assumptions {
	set := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.BetaAOV, o.BetaAOV)
	set(&a.AlphaAOV, o.AlphaAOV)
	set(&a.GammaAOV, o.GammaAOV)
	set(&a.DTCDiscountRate, o.DiscountRate)
	set(&a.DTCReturnRate, o.ReturnRate)
	set(&a.Burden.BenefitsPct, o.BenefitsPct)
	set(&a.Burden.PayrollTaxesPct, o.PayrollTaxesPct)
	set(&a.Burden.ProcessingPct, o.ProcessingPct)
	set(&a.Position.StartingCash, o.StartingCash)
	set(&a.Position.AccountsReceivable, o.AccountsReceivable)
	set(&a.Position.AccountsPayable, o.AccountsPayable)
	if o.ApplyReturnsYear != nil {
		a.ApplyReturnsYear = *o.ApplyReturnsYear
	}
	return a
}

// ApplyTo saves the overridden assumptions and adds the scenario's records.
// It stops at the first rejected record.
func (s *Scenario) ApplyTo(ctx context.Context, p Planner) error {
	a, err := p.Assumptions(ctx)
	if err != nil {
		return err
	}
	if err := p.SaveAssumptions(ctx, s.Assumptions.Apply(a)); err != nil {
		return fmt.Errorf("scenario assumptions: %w", err)
	}
	for _, m := range s.Team {
		if _, err := p.AddTeamMember(ctx, m); err != nil {
			return fmt.Errorf("scenario team member %q: %w", m.FullName(), err)
		}
	}
	for _, e := range s.Opex {
		if _, err := p.AddOpexExpense(ctx, e); err != nil {
			return fmt.Errorf("scenario expense %q: %w", e.Name, err)
		}
	}
	for _, d := range s.Wholesale {
		if _, err := p.AddWholesaleDeal(ctx, d); err != nil {
			return fmt.Errorf("scenario deal %q: %w", d.CustomerName, err)
		}
	}
	return nil
}

// Fork copies the custom records of src into a fresh memory store so a
// scenario never writes to the persistent plan.
func Fork(ctx context.Context, src store.RecordStore) (*memory.Store, error) {
	dst := memory.New()

	team, err := src.ListTeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range team {
		if err := dst.SaveTeamMember(ctx, m); err != nil {
			return nil, err
		}
	}
	opex, err := src.ListOpexExpenses(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range opex {
		if err := dst.SaveOpexExpense(ctx, e); err != nil {
			return nil, err
		}
	}
	deals, err := src.ListWholesaleDeals(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deals {
		if err := dst.SaveWholesaleDeal(ctx, d); err != nil {
			return nil, err
		}
	}

	a, err := src.LoadAssumptions(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if err := dst.SaveAssumptions(ctx, a); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
