package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SimplifiedBurden is the percentage-of-salary burden used before the full
// payroll provider schedule activates.
type SimplifiedBurden struct {
	BenefitsPct     decimal.Decimal `json:"benefits_pct" yaml:"benefits_pct"`
	PayrollTaxesPct decimal.Decimal `json:"payroll_taxes_pct" yaml:"payroll_taxes_pct"`
	ProcessingPct   decimal.Decimal `json:"processing_pct" yaml:"processing_pct"`
}

func (s SimplifiedBurden) Rate() decimal.Decimal {
	return decimal.Sum(s.BenefitsPct, s.PayrollTaxesPct, s.ProcessingPct)
}

// SalaryCost itemises the simplified burden on a salary amount.
type SalaryCost struct {
	Salary      decimal.Decimal `json:"salary"`
	Benefits    decimal.Decimal `json:"benefits"`
	Taxes       decimal.Decimal `json:"taxes"`
	Processing  decimal.Decimal `json:"processing"`
	TotalBurden decimal.Decimal `json:"total_burden"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

func (s SimplifiedBurden) Cost(salary decimal.Decimal) SalaryCost {
	c := SalaryCost{
		Salary:     salary,
		Benefits:   salary.Mul(s.BenefitsPct),
		Taxes:      salary.Mul(s.PayrollTaxesPct),
		Processing: salary.Mul(s.ProcessingPct),
	}
	c.TotalBurden = decimal.Sum(c.Benefits, c.Taxes, c.Processing)
	c.TotalCost = salary.Add(c.TotalBurden)
	return c
}

// BurdenRateTable is the full employer burden schedule. It applies from
// StartMonth onwards in every year; earlier months use Simplified. A
// non-zero StartYear pins the switch to one year: earlier years use
// Simplified throughout, later years the full schedule.
type BurdenRateTable struct {
	StartYear         int              `json:"start_year" yaml:"start_year"`
	StartMonth        int              `json:"start_month" yaml:"start_month"`
	PlatformFee       decimal.Decimal  `json:"platform_fee" yaml:"platform_fee"`
	Healthcare        decimal.Decimal  `json:"healthcare" yaml:"healthcare"`
	FUTA              decimal.Decimal  `json:"futa" yaml:"futa"`
	MedicarePct       decimal.Decimal  `json:"medicare_pct" yaml:"medicare_pct"`
	SocialSecurityPct decimal.Decimal  `json:"social_security_pct" yaml:"social_security_pct"`
	StateTaxPct       decimal.Decimal  `json:"state_tax_pct" yaml:"state_tax_pct"`
	Simplified        SimplifiedBurden `json:"simplified" yaml:"simplified"`
}

// FlatFees is the per-month fixed add-on.
func (b BurdenRateTable) FlatFees() decimal.Decimal {
	return decimal.Sum(b.PlatformFee, b.Healthcare, b.FUTA)
}

// PercentRate is the per-month percentage add-on.
func (b BurdenRateTable) PercentRate() decimal.Decimal {
	return decimal.Sum(b.MedicarePct, b.SocialSecurityPct, b.StateTaxPct)
}

// Active reports whether the full schedule applies in the given month.
func (b BurdenRateTable) Active(year, month int) bool {
	if b.StartYear == 0 || year == b.StartYear {
		return month >= b.StartMonth
	}
	return year > b.StartYear
}

func (b BurdenRateTable) Validate() error {
	if b.StartMonth < 1 || b.StartMonth > 12 {
		return fmt.Errorf("burden start month %d: must be between 1 and 12", b.StartMonth)
	}
	for _, r := range []decimal.Decimal{
		b.MedicarePct, b.SocialSecurityPct, b.StateTaxPct,
		b.Simplified.BenefitsPct, b.Simplified.PayrollTaxesPct, b.Simplified.ProcessingPct,
	} {
		if err := ValidateRate(r); err != nil {
			return err
		}
	}
	if b.PlatformFee.IsNegative() || b.Healthcare.IsNegative() || b.FUTA.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Assumptions are the user-editable model inputs.
type Assumptions struct {
	BetaAOV  decimal.Decimal `json:"beta_aov" yaml:"beta_aov"`
	AlphaAOV decimal.Decimal `json:"alpha_aov" yaml:"alpha_aov"`
	GammaAOV decimal.Decimal `json:"gamma_aov" yaml:"gamma_aov"`

	DTCDiscountRate decimal.Decimal `json:"dtc_discount_pct" yaml:"dtc_discount_pct"`
	DTCReturnRate   decimal.Decimal `json:"dtc_returns_pct" yaml:"dtc_returns_pct"`
	// ApplyReturnsYear is the first year DTCReturnRate is applied.
	ApplyReturnsYear int `json:"apply_returns_year" yaml:"apply_returns_year"`

	Cogs   ResolvedCogsRates `json:"cogs" yaml:"cogs"`
	Burden SimplifiedBurden  `json:"burden" yaml:"burden"`

	// Stored for forward planning; no allocator reads these.
	CACImprovementRate decimal.Decimal `json:"cac_improvement_rate" yaml:"cac_improvement_rate"`
	CACFloor           decimal.Decimal `json:"cac_floor" yaml:"cac_floor"`

	Position CashPosition `json:"position" yaml:"position"`
}

// ReturnRate returns the DTC return rate in effect for year.
func (a Assumptions) ReturnRate(year int) decimal.Decimal {
	if a.ApplyReturnsYear != 0 && year < a.ApplyReturnsYear {
		return decimal.Zero
	}
	return a.DTCReturnRate
}

func (a Assumptions) Validate() error {
	for name, r := range map[string]decimal.Decimal{
		"dtc discount":         a.DTCDiscountRate,
		"dtc returns":          a.DTCReturnRate,
		"cogs product":         a.Cogs.Product,
		"cogs warehousing":     a.Cogs.Warehousing,
		"cogs freight":         a.Cogs.Freight,
		"cogs merchant":        a.Cogs.Merchant,
		"benefits":             a.Burden.BenefitsPct,
		"payroll taxes":        a.Burden.PayrollTaxesPct,
		"processing":           a.Burden.ProcessingPct,
		"cac improvement rate": a.CACImprovementRate,
	} {
		if err := ValidateRate(r); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, v := range []decimal.Decimal{a.BetaAOV, a.AlphaAOV, a.GammaAOV, a.CACFloor} {
		if v.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}
