package baseline

import (
	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func member(first, last, title string, dept core.Department, typ core.EmploymentType, salary, start string, status core.MemberStatus, notes string) core.TeamMember {
	return core.TeamMember{
		Meta:           meta("team", first+"|"+last+"|"+start),
		FirstName:      first,
		LastName:       last,
		Title:          title,
		Department:     dept,
		EmploymentType: typ,
		AnnualSalary:   d(salary),
		StartDate:      date(start),
		Location:       "USA",
		Status:         status,
		Notes:          notes,
	}
}

// Team returns the seven seeded team members.
func Team() []core.TeamMember {
	return []core.TeamMember{
		member("Ryan", "Person", "Operations", core.GeneralAdmin, core.FullTime, "48000", "2026-01-01", core.StatusActive, "Current team member"),
		member("Jenny", "Champion", "Marketing", core.SalesMarketing, core.FullTime, "36000", "2026-01-01", core.StatusActive, "Current team member"),
		member("Michele", "Coffman", "Admin", core.GeneralAdmin, core.PartTime, "12000", "2026-01-01", core.StatusActive, "Current team member - part time"),
		member("Sukhjit", "", "Product Development", core.ResearchDevelop, core.FullTime, "54000", "2026-01-01", core.StatusActive, "Current team member"),
		member("Nathan", "Brown", "Sales", core.SalesMarketing, core.FullTime, "30000", "2026-05-01", core.StatusProjected, "Starting May 2026"),
		member("Jay", "Nalbach", "Operations", core.GeneralAdmin, core.FullTime, "30000", "2026-05-01", core.StatusProjected, "Starting May 2026"),
		member("Marty", "", "W9 Contractor", core.GeneralAdmin, core.Contractor, "48000", "2026-01-01", core.StatusActive, "W9 contractor - no burdens"),
	}
}

func annual(name, category, vendor, cost, notes string) core.OpexExpense {
	annualCost := d(cost)
	return core.OpexExpense{
		Meta:          meta("opex", name+"|2026-01-01"),
		Name:          name,
		Category:      category,
		Vendor:        vendor,
		Frequency:     core.Annual,
		MonthlyAmount: core.MonthlyFromAnnual(annualCost),
		AnnualCost:    annualCost,
		StartDate:     date("2026-01-01"),
		GrowthRate:    decimal.Zero,
		Notes:         notes,
	}
}

func monthly(name, category, vendor, amount, annualCost, start, end, growth, notes string) core.OpexExpense {
	return core.OpexExpense{
		Meta:          meta("opex", name+"|"+start),
		Name:          name,
		Category:      category,
		Vendor:        vendor,
		Frequency:     core.Monthly,
		MonthlyAmount: d(amount),
		AnnualCost:    d(annualCost),
		StartDate:     date(start),
		EndDate:       date(end),
		GrowthRate:    d(growth),
		Notes:         notes,
	}
}

// Opex returns the fourteen seeded operating expenses.
func Opex() []core.OpexExpense {
	const fixed = "Fixed annual budget for 2026"
	return []core.OpexExpense{
		annual("Travel & Entertainment", "Travel & Entertainment", "Various", "25000", fixed),
		annual("Phone Services", "Systems & Software", "Various Carriers", "2000", fixed),
		annual("Service Charges", "Professional Services", "Various", "5000", fixed),
		annual("Travel", "Travel & Entertainment", "Various", "20000", fixed),
		annual("Development & Innovation", "Research & Development", "Various", "50000", fixed),
		annual("Postage & Shipping", "Other", "USPS/FedEx/UPS", "20000", fixed),
		annual("Other Operating Expenses", "Other", "Various", "10000", fixed),
		monthly("Shopify", "Systems & Software", "Shopify", "2850", "34200", "2026-01-01", "", "0", "E-commerce platform"),
		monthly("Klaviyo (ESP/CRM)", "Systems & Software", "Klaviyo", "2500", "30000", "2026-01-01", "2026-02-28", "0", "Migration period through February"),
		monthly("Klaviyo (ESP/CRM)", "Systems & Software", "Klaviyo", "250", "2500", "2026-03-01", "", "0", "Post-migration cost"),
		monthly("Yotpo (Reviews)", "Systems & Software", "Yotpo", "100", "1200", "2026-01-01", "", "0", "Reviews platform"),
		annual("UpPromote", "Systems & Software", "UpPromote", "3000", "Affiliate platform"),
		monthly("Performance Marketing - Google/Meta", "Sales & Marketing", "Google/Meta", "10000", "160000", "2026-01-01", "", "0.05", "Digital advertising, ramping from $10K to $25K"),
		monthly("Affiliate Platform Costs", "Sales & Marketing", "Various Affiliates", "5000", "50000", "2026-01-01", "", "0", "Cost of affiliate commissions"),
	}
}

func deal(customer string, pairs int64, price, closeDate, delivery, totalCost string, produced, doors int64, notes string) core.WholesaleDeal {
	cost := d(totalCost)
	return core.WholesaleDeal{
		Meta:            meta("wholesale", customer+"|"+closeDate),
		CustomerName:    customer,
		ProductType:     core.ProductBeta,
		OrderType:       core.OrderInLine,
		NumPairs:        pairs,
		WholesalePrice:  d(price),
		CloseDate:       date(closeDate),
		DeliveryDate:    date(delivery),
		SalesCommission: decimal.Zero,
		TotalCost:       &cost,
		UnitsProduced:   produced,
		Doors:           doors,
		Notes:           notes,
	}
}

// Wholesale returns the two seeded wholesale deals.
func Wholesale() []core.WholesaleDeal {
	return []core.WholesaleDeal{
		deal("Total WS Spring 26", 500, "144", "2026-03-01", "2026-03-15", "77770", 1400, 33, "Spring 2026 - 500 units @ 33 doors"),
		deal("Total WS Fall 26", 1500, "144", "2026-08-01", "2026-08-15", "138875", 2500, 80, "Fall 2026 - 1,500 units @ 80 doors"),
	}
}

// Burden returns the payroll burden schedule: the payroll provider's full
// schedule from May of each year, a simplified percentage before that.
func Burden() core.BurdenRateTable {
	return core.BurdenRateTable{
		StartMonth:        5,
		PlatformFee:       d("137.00"),
		Healthcare:        d("697.91"),
		FUTA:              d("3.50"),
		MedicarePct:       d("0.0145"),
		SocialSecurityPct: d("0.062"),
		StateTaxPct:       d("0.001"),
		Simplified: core.SimplifiedBurden{
			BenefitsPct:     d("0.10"),
			PayrollTaxesPct: d("0.08"),
			ProcessingPct:   d("0.005"),
		},
	}
}
