package engine

import (
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

// AllocateTeam returns salary plus employer burden per month of year.
//
// A member is active from their start month when they start within year,
// and from January otherwise, including when the start date is missing.
// Months whose first day falls after the termination date are excluded.
func (e *Engine) AllocateTeam(members []core.TeamMember, year int) core.MonthlyAmounts {
	var out core.MonthlyAmounts
	for _, m := range members {
		if !m.AnnualSalary.IsPositive() {
			continue
		}
		for month := e.firstActiveMonth(m, year); month <= 12; month++ {
			if !m.TerminationDate.IsEmpty() && core.MonthStart(year, month).After(m.TerminationDate.Time) {
				break
			}
			out.Add(month, e.memberMonthCost(m, year, month))
		}
	}
	return out
}

func (e *Engine) firstActiveMonth(m core.TeamMember, year int) int {
	switch {
	case m.StartDate.IsEmpty():
		e.logger.Debug("Team member has no usable start date, counting from January",
			"id", m.ID, "member", m.FullName(), "year", year)
		return 1
	case m.StartDate.Year() == year:
		return m.StartDate.Month()
	default:
		return 1
	}
}

// memberMonthCost is one month of salary plus the burden regime in force.
func (e *Engine) memberMonthCost(m core.TeamMember, year, month int) decimal.Decimal {
	salary := core.MonthlyFromAnnual(m.AnnualSalary)
	if !m.EmploymentType.Burdened() {
		return salary
	}
	return salary.Add(e.MonthlyBurden(salary, year, month))
}

// MonthlyBurden is the employer burden on one month of salary.
func (e *Engine) MonthlyBurden(monthlySalary decimal.Decimal, year, month int) decimal.Decimal {
	if e.burden.Active(year, month) {
		return e.burden.FlatFees().Add(monthlySalary.Mul(e.burden.PercentRate()))
	}
	return monthlySalary.Mul(e.burden.Simplified.Rate())
}

// MemberCost is a per-member annual cost line.
type MemberCost struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Department   core.Department     `json:"department"`
	Salary       decimal.Decimal     `json:"salary"`
	Burden       decimal.Decimal     `json:"burden"`
	Total        decimal.Decimal     `json:"total"`
	ActiveMonths int                 `json:"active_months"`
	Monthly      core.MonthlyAmounts `json:"monthly"`
}

// TeamBreakdown allocates each member separately. Members with no salary
// are listed with zero cost.
func (e *Engine) TeamBreakdown(members []core.TeamMember, year int) []MemberCost {
	out := make([]MemberCost, 0, len(members))
	for _, m := range members {
		mc := MemberCost{ID: m.ID, Name: m.FullName(), Department: m.Department}
		mc.Monthly = e.AllocateTeam([]core.TeamMember{m}, year)
		monthly := core.MonthlyFromAnnual(m.AnnualSalary)
		for _, v := range mc.Monthly {
			if v.IsPositive() {
				mc.ActiveMonths++
				mc.Salary = mc.Salary.Add(monthly)
			}
		}
		mc.Salary = core.Cents(mc.Salary)
		mc.Total = core.Cents(mc.Monthly.Total())
		mc.Burden = mc.Total.Sub(mc.Salary)
		out = append(out, mc)
	}
	return out
}

// DepartmentCosts sums annual team cost by department.
func (e *Engine) DepartmentCosts(members []core.TeamMember, year int) map[core.Department]decimal.Decimal {
	out := make(map[core.Department]decimal.Decimal)
	for _, mc := range e.TeamBreakdown(members, year) {
		out[mc.Department] = out[mc.Department].Add(mc.Total)
	}
	return out
}
