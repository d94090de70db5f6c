package core

import "github.com/shopspring/decimal"

// CogsRates are per-component COGS fractions of revenue. A nil component
// falls back to DefaultCogsRates.
type CogsRates struct {
	Product     *decimal.Decimal `json:"cogs_product_pct,omitempty" yaml:"cogs_product_pct,omitempty"`
	Warehousing *decimal.Decimal `json:"cogs_warehousing_pct,omitempty" yaml:"cogs_warehousing_pct,omitempty"`
	Freight     *decimal.Decimal `json:"cogs_freight_pct,omitempty" yaml:"cogs_freight_pct,omitempty"`
	Merchant    *decimal.Decimal `json:"cogs_merchant_pct,omitempty" yaml:"cogs_merchant_pct,omitempty"`
}

// ResolvedCogsRates has every component set.
type ResolvedCogsRates struct {
	Product     decimal.Decimal `json:"product" yaml:"product"`
	Warehousing decimal.Decimal `json:"warehousing" yaml:"warehousing"`
	Freight     decimal.Decimal `json:"freight" yaml:"freight"`
	Merchant    decimal.Decimal `json:"merchant" yaml:"merchant"`
}

// DefaultCogsRates is 25% product, 6% warehousing, 6% freight, 3% merchant.
var DefaultCogsRates = ResolvedCogsRates{
	Product:     decimal.RequireFromString("0.25"),
	Warehousing: decimal.RequireFromString("0.06"),
	Freight:     decimal.RequireFromString("0.06"),
	Merchant:    decimal.RequireFromString("0.03"),
}

func (r ResolvedCogsRates) Total() decimal.Decimal {
	return decimal.Sum(r.Product, r.Warehousing, r.Freight, r.Merchant)
}

// Resolve fills unset components from defaults.
func (c CogsRates) Resolve(defaults ResolvedCogsRates) ResolvedCogsRates {
	pick := func(v *decimal.Decimal, d decimal.Decimal) decimal.Decimal {
		if v == nil {
			return d
		}
		return *v
	}
	return ResolvedCogsRates{
		Product:     pick(c.Product, defaults.Product),
		Warehousing: pick(c.Warehousing, defaults.Warehousing),
		Freight:     pick(c.Freight, defaults.Freight),
		Merchant:    pick(c.Merchant, defaults.Merchant),
	}
}

func (c CogsRates) Validate() error {
	for _, v := range []*decimal.Decimal{c.Product, c.Warehousing, c.Freight, c.Merchant} {
		if v == nil {
			continue
		}
		if err := ValidateRate(*v); err != nil {
			return err
		}
	}
	return nil
}

// CogsBreakdown splits a COGS figure by component.
type CogsBreakdown struct {
	Product     decimal.Decimal `json:"product"`
	Warehousing decimal.Decimal `json:"warehousing"`
	Freight     decimal.Decimal `json:"freight"`
	Merchant    decimal.Decimal `json:"merchant"`
	Total       decimal.Decimal `json:"total"`
}

// BreakdownCogs applies the rates to revenue.
func BreakdownCogs(revenue decimal.Decimal, rates ResolvedCogsRates) CogsBreakdown {
	b := CogsBreakdown{
		Product:     revenue.Mul(rates.Product),
		Warehousing: revenue.Mul(rates.Warehousing),
		Freight:     revenue.Mul(rates.Freight),
		Merchant:    revenue.Mul(rates.Merchant),
	}
	b.Total = decimal.Sum(b.Product, b.Warehousing, b.Freight, b.Merchant)
	return b
}

// DealMetrics are the derived economics of a single wholesale deal.
type DealMetrics struct {
	Revenue        decimal.Decimal `json:"revenue"`
	TotalCogs      decimal.Decimal `json:"total_cogs"`
	Breakdown      *CogsBreakdown  `json:"cogs_breakdown,omitempty"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	GrossMarginPct decimal.Decimal `json:"gross_margin_pct"`
	Commission     decimal.Decimal `json:"commission"`
	NetProfit      decimal.Decimal `json:"net_profit"`
}

// Revenue is pairs times per-pair price.
func (w WholesaleDeal) Revenue() decimal.Decimal {
	return w.WholesalePrice.Mul(decimal.NewFromInt(w.NumPairs))
}

// TotalCogs returns the explicit override when present, else revenue times
// the resolved rates.
func (w WholesaleDeal) TotalCogs(defaults ResolvedCogsRates) decimal.Decimal {
	if w.TotalCost != nil {
		return *w.TotalCost
	}
	return w.Revenue().Mul(w.Cogs.Resolve(defaults).Total())
}

// Metrics derives deal economics. The component breakdown is only present
// when COGS came from rates.
func (w WholesaleDeal) Metrics(defaults ResolvedCogsRates) DealMetrics {
	revenue := w.Revenue()
	m := DealMetrics{
		Revenue:    revenue,
		Commission: revenue.Mul(w.SalesCommission),
	}
	if w.TotalCost != nil {
		m.TotalCogs = *w.TotalCost
	} else {
		b := BreakdownCogs(revenue, w.Cogs.Resolve(defaults))
		m.Breakdown = &b
		m.TotalCogs = b.Total
	}
	m.GrossProfit = revenue.Sub(m.TotalCogs)
	m.GrossMarginPct = MarginPct(m.GrossProfit, revenue)
	m.NetProfit = m.GrossProfit.Sub(m.Commission)
	return m
}
