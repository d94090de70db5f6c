package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"finplan/internal/baseline"
	"finplan/internal/core"
	"finplan/internal/services"

	"github.com/shopspring/decimal"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func monthName(m int) string {
	if m == 0 {
		return "Total"
	}
	return time.Month(m).String()[:3]
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func renderProfitAndLoss(w io.Writer, pl core.ProfitAndLoss) error {
	fmt.Fprintf(w, "P&L %d\n", pl.Year)
	if !pl.DTCForecast {
		fmt.Fprintln(w, "note: no DTC forecast for this year, DTC figures are zero")
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Month\tDTC\tWholesale\tRevenue\tCOGS\tGross\tGM\tTeam\tOpEx\tEBITDA\tMargin\t")
	rows := append(pl.Rows[:], pl.Totals)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			monthName(r.Month),
			core.FormatUSD(r.DTCRevenue),
			core.FormatUSD(r.WholesaleRevenue),
			core.FormatUSD(r.TotalRevenue),
			core.FormatUSD(r.TotalCogs),
			core.FormatUSD(r.GrossProfit),
			pct(r.GrossMarginPct),
			core.FormatUSD(r.TeamCosts),
			core.FormatUSD(r.OtherOpex),
			core.FormatUSD(r.EBITDA),
			pct(r.EBITDAMarginPct))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func renderRunway(w io.Writer, r core.RunwayReport) error {
	fmt.Fprintf(w, "Runway %d, opening net cash %s\n", r.Year, core.FormatUSD(r.Position.NetCash()))
	tw := newTable(w)
	fmt.Fprintln(tw, "Month\tCash in\tCash out\tNet\tEnding\tBurn\tDays\t")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			monthName(row.Month),
			core.FormatUSD(row.CashIn),
			core.FormatUSD(row.CashOut),
			core.FormatUSD(row.NetFlow),
			core.FormatUSD(row.EndingCash),
			core.FormatUSD(row.BurnRate),
			row.DaysOfCash.StringFixed(0))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	in := r.Insights
	fmt.Fprintf(w, "\nEnding cash:      %s\n", core.FormatUSD(in.EndingCash))
	fmt.Fprintf(w, "Lowest cash:      %s\n", core.FormatUSD(in.MinEndingCash))
	fmt.Fprintf(w, "Funding need:     %s\n", core.FormatUSD(in.FundingNeed))
	fmt.Fprintf(w, "Days of cash:     %s\n", in.DaysOfCash.StringFixed(0))
	if in.CashOutMonth > 0 {
		fmt.Fprintf(w, "Cash runs out in: %s\n", monthName(in.CashOutMonth))
	}
	if in.BreakevenMonth > 0 {
		fmt.Fprintf(w, "Breakeven from:   %s\n", monthName(in.BreakevenMonth))
	}
	return nil
}

func renderBaseline(w io.Writer, ds baseline.Dataset) error {
	fmt.Fprintf(w, "Baseline %s\n", ds.Version)
	fmt.Fprintf(w, "  team members:     %d\n", len(ds.Team))
	fmt.Fprintf(w, "  opex expenses:    %d\n", len(ds.Opex))
	fmt.Fprintf(w, "  wholesale deals:  %d\n", len(ds.Wholesale))
	if ds.Burden.StartYear != 0 {
		fmt.Fprintf(w, "  burden from:      %d-%02d\n", ds.Burden.StartYear, ds.Burden.StartMonth)
	} else {
		fmt.Fprintf(w, "  burden from:      %s each year\n", time.Month(ds.Burden.StartMonth))
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "\nDeal\tCustomer\tPairs\tRevenue\t")
	for _, d := range ds.Wholesale {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", d.ID, d.CustomerName, d.NumPairs, core.FormatUSD(d.Revenue()))
	}
	return tw.Flush()
}

func renderDeal(w io.Writer, d core.WholesaleDeal, m core.DealMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Customer\t%s\n", d.CustomerName)
	if when, ok := d.RecognitionDate(); ok {
		fmt.Fprintf(tw, "Recognised\t%s\n", when)
	}
	fmt.Fprintf(tw, "Pairs\t%d\n", d.NumPairs)
	fmt.Fprintf(tw, "Revenue\t%s\n", core.FormatUSD(m.Revenue))
	fmt.Fprintf(tw, "COGS\t%s\n", core.FormatUSD(m.TotalCogs))
	fmt.Fprintf(tw, "Gross profit\t%s (%s)\n", core.FormatUSD(m.GrossProfit), pct(m.GrossMarginPct))
	fmt.Fprintf(tw, "Commission\t%s\n", core.FormatUSD(m.Commission))
	fmt.Fprintf(tw, "Net profit\t%s\n", core.FormatUSD(m.NetProfit))
	return tw.Flush()
}

func renderBreakdown(w io.Writer, b services.Breakdown) error {
	fmt.Fprintf(w, "Cost breakdown %d\n\n", b.Year)
	tw := newTable(w)
	fmt.Fprintln(tw, "Member\tDepartment\tMonths\tSalary\tBurden\tTotal\t")
	for _, m := range b.Members {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
			m.Name, m.Department, m.ActiveMonths,
			core.FormatUSD(m.Salary), core.FormatUSD(m.Burden), core.FormatUSD(m.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	depts := make([]string, 0, len(b.Departments))
	for d := range b.Departments {
		depts = append(depts, string(d))
	}
	sort.Strings(depts)
	for _, d := range depts {
		fmt.Fprintf(tw, "%s\t%s\t\n", d, core.FormatUSD(b.Departments[core.Department(d)]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	cats := make([]string, 0, len(b.Categories))
	for c := range b.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t\n", c, core.FormatUSD(b.Categories[c]))
	}
	return tw.Flush()
}
