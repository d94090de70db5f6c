// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals so that monthly roll-ups sum exactly;
// rounding happens only when values are displayed.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ParseAmount parses a non-negative amount. It accepts dot or comma
// decimal separators and ignores a leading "$" and thousands separators
// when a dot is present.
//
// Examples:
//
//	ParseAmount("1,234.50") -> 1234.5
//	ParseAmount("12,5")     -> 12.5
//	ParseAmount("$300")     -> 300
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePercent parses "6" or "6%" as 0.06. Values at or below 1 are taken
// as already fractional.
func ParsePercent(s string) (decimal.Decimal, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Div(hundred)
	}
	if err := ValidateRate(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// MonthlyFromAnnual divides by twelve.
func MonthlyFromAnnual(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// Cents rounds an amount to whole cents.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MarginPct returns numerator/denominator*100, or 0 when the denominator is
// not positive.
func MarginPct(numerator, denominator decimal.Decimal) decimal.Decimal {
	if !denominator.IsPositive() {
		return decimal.Zero
	}
	return numerator.Div(denominator).Mul(hundred)
}

// FormatUSD renders an amount as "$1,234.56" or "-$1,234.56".
func FormatUSD(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
