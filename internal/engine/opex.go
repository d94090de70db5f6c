package engine

import (
	"fmt"
	"sync"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// FrequencyAllocator spreads one expense over the months of a year.
// Each frequency has its own allocator.
type FrequencyAllocator interface {
	// Allocate adds the expense's cost into out. start is never empty.
	Allocate(out *core.MonthlyAmounts, exp core.OpexExpense, amount decimal.Decimal, start core.Date, year int)
}

// inRange reports whether the first of month is on or after from and on or
// before end. An empty end is open-ended.
func inRange(year, month int, from, end core.Date) bool {
	first := core.MonthStart(year, month)
	if !first.OnOrAfter(from) {
		return false
	}
	return end.IsEmpty() || first.OnOrBefore(end)
}

// MonthlyAllocator charges the monthly amount in every month from the start
// month on, so a mid-month start still books that month.
type MonthlyAllocator struct{}

func (MonthlyAllocator) Allocate(out *core.MonthlyAmounts, exp core.OpexExpense, amount decimal.Decimal, start core.Date, year int) {
	from := start.FirstOfMonth()
	for m := 1; m <= 12; m++ {
		if inRange(year, m, from, exp.EndDate) {
			out.Add(m, amount)
		}
	}
}

// QuarterlyAllocator charges three months of cost in March, June,
// September and December when the first of that month is in range.
type QuarterlyAllocator struct{}

func (QuarterlyAllocator) Allocate(out *core.MonthlyAmounts, exp core.OpexExpense, amount decimal.Decimal, start core.Date, year int) {
	charge := amount.Mul(decimal.NewFromInt(3))
	for _, m := range []int{3, 6, 9, 12} {
		if inRange(year, m, start, exp.EndDate) {
			out.Add(m, charge)
		}
	}
}

// AnnualAllocator spreads a twelfth of the annual cost over every month
// whose first day is in range. A mid-month start skips that month.
type AnnualAllocator struct{}

func (AnnualAllocator) Allocate(out *core.MonthlyAmounts, exp core.OpexExpense, amount decimal.Decimal, start core.Date, year int) {
	annual := exp.AnnualCost
	if !annual.IsPositive() {
		annual = amount.Mul(decimal.NewFromInt(12))
	}
	monthly := core.MonthlyFromAnnual(annual)
	for m := 1; m <= 12; m++ {
		if inRange(year, m, start, exp.EndDate) {
			out.Add(m, monthly)
		}
	}
}

// OneTimeAllocator charges the full amount in the start month.
type OneTimeAllocator struct{}

func (OneTimeAllocator) Allocate(out *core.MonthlyAmounts, _ core.OpexExpense, amount decimal.Decimal, start core.Date, year int) {
	if start.Year() == year {
		out.Add(start.Month(), amount)
	}
}

var (
	frequencyMu         sync.RWMutex
	frequencyAllocators = map[core.Frequency]FrequencyAllocator{
		core.Monthly:   MonthlyAllocator{},
		core.Quarterly: QuarterlyAllocator{},
		core.Annual:    AnnualAllocator{},
		core.OneTime:   OneTimeAllocator{},
	}
)

// GetFrequencyAllocator returns the allocator registered for f.
func GetFrequencyAllocator(f core.Frequency) (FrequencyAllocator, error) {
	frequencyMu.RLock()
	defer frequencyMu.RUnlock()
	a, ok := frequencyAllocators[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return a, nil
}

// RegisterFrequencyAllocator adds or replaces the allocator for f.
func RegisterFrequencyAllocator(f core.Frequency, a FrequencyAllocator) {
	frequencyMu.Lock()
	defer frequencyMu.Unlock()
	frequencyAllocators[f] = a
}

// AllocateOpex returns non-payroll operating expense per month of year.
//
// The per-period amount is the monthly amount, or a twelfth of the annual
// cost when no monthly amount is set. Expenses with neither are skipped. A
// missing start date is treated as January 1 of year, a missing frequency
// as Monthly.
func (e *Engine) AllocateOpex(expenses []core.OpexExpense, year int) core.MonthlyAmounts {
	var out core.MonthlyAmounts
	for _, exp := range expenses {
		amount := exp.MonthlyAmount
		if !amount.IsPositive() {
			amount = core.MonthlyFromAnnual(exp.AnnualCost)
		}
		if !amount.IsPositive() {
			e.logger.Debug("Skipping expense with no amount", "id", exp.ID, "expense", exp.Name)
			continue
		}
		start := exp.StartDate
		if start.IsEmpty() {
			start = core.NewDate(year, 1, 1)
		}
		freq := exp.Frequency
		if freq == "" {
			freq = core.Monthly
		}
		alloc, err := GetFrequencyAllocator(freq)
		if err != nil {
			e.logger.Warn("Skipping expense", "id", exp.ID, "expense", exp.Name, "error", err)
			continue
		}
		alloc.Allocate(&out, exp, amount, start, year)
	}
	return out
}

// OpexByCategory sums the allocated year by expense category.
func (e *Engine) OpexByCategory(expenses []core.OpexExpense, year int) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, exp := range expenses {
		total := e.AllocateOpex([]core.OpexExpense{exp}, year).Total()
		if total.IsZero() {
			continue
		}
		out[exp.Category] = out[exp.Category].Add(total)
	}
	for k, v := range out {
		out[k] = core.Cents(v)
	}
	return out
}
