package main

import (
	"fmt"
	"io"
	"os"

	"finplan/internal/baseline"
	"finplan/internal/core"
	"finplan/internal/services"

	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var plCmd = &cobra.Command{
	Use:   "pl",
	Short: "Print the monthly P&L",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		years, _ := cmd.Flags().GetInt("years")
		rates, err := rateFlags(cmd)
		if err != nil {
			return err
		}

		var pls []core.ProfitAndLoss
		if years > 1 {
			if pls, err = s.planner.ProjectYears(ctx, s.year, years); err != nil {
				return err
			}
		} else {
			pl, err := s.planner.ProfitAndLoss(ctx, s.year, rates)
			if err != nil {
				return err
			}
			pls = []core.ProfitAndLoss{pl}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, pls)
		}
		for _, pl := range pls {
			if err := renderProfitAndLoss(out, pl); err != nil {
				return err
			}
		}
		return nil
	},
}

var runwayCmd = &cobra.Command{
	Use:   "runway",
	Short: "Project month-end cash for the plan year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		var pos *core.CashPosition
		if cmd.Flags().Changed("cash") {
			raw, _ := cmd.Flags().GetString("cash")
			cash, err := core.ParseAmount(raw)
			if err != nil {
				return fmt.Errorf("--cash: %w", err)
			}
			a, err := s.planner.Assumptions(ctx)
			if err != nil {
				return err
			}
			p := a.Position
			p.StartingCash = cash
			pos = &p
		}

		report, err := s.planner.Runway(ctx, s.year, pos)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return renderRunway(cmd.OutOrStdout(), report)
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Summarise the built-in baseline dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds := baseline.Load()
		out := cmd.OutOrStdout()

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			printer := pp.New()
			printer.SetOutput(out)
			printer.SetColoringEnabled(isTerminal(out))
			_, err := printer.Println(ds)
			return err
		}
		if jsonOutput {
			return writeJSON(out, map[string]any{
				"version":   ds.Version,
				"team":      ds.Team,
				"opex":      ds.Opex,
				"wholesale": ds.Wholesale,
				"burden":    ds.Burden,
			})
		}
		return renderBaseline(out, ds)
	},
}

var dealCmd = &cobra.Command{
	Use:   "deal <id>",
	Short: "Show the economics of one wholesale deal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		deal, metrics, err := s.planner.DealMetrics(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"deal": deal, "metrics": metrics})
		}
		return renderDeal(cmd.OutOrStdout(), deal, metrics)
	},
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Annual team and OpEx cost by member, department and category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		b, err := s.planner.Breakdown(ctx, s.year)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), b)
		}
		return renderBreakdown(cmd.OutOrStdout(), b)
	},
}

func init() {
	plCmd.Flags().String("discount", "", "DTC discount rate override (10, 10% or 0.1)")
	plCmd.Flags().String("returns", "", "DTC return rate override")
	plCmd.Flags().Int("years", 1, "Project this many consecutive years with growth applied")
	runwayCmd.Flags().String("cash", "", "Starting cash override")
	baselineCmd.Flags().Bool("dump", false, "Pretty-print every baseline record")
}

func rateFlags(cmd *cobra.Command) (services.Rates, error) {
	var r services.Rates
	for name, dst := range map[string]**decimal.Decimal{"discount": &r.Discount, "returns": &r.Returns} {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			continue
		}
		v, err := core.ParsePercent(raw)
		if err != nil {
			return r, fmt.Errorf("--%s: %w", name, err)
		}
		*dst = &v
	}
	return r, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
