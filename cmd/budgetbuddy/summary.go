package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) summaryCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show expenses, income and savings for a month",
		Long:  `Show the monthly summary. Defaults to the current month in TIMEZONE.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month < 0 || month > 12 {
				return fmt.Errorf("invalid month %d: must be between 1 and 12", month)
			}

			ledger, err := cli.OpenLedger(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			now := time.Now().In(ledger.Location)
			if year == 0 {
				year = now.Year()
			}
			m := now.Month()
			if month != 0 {
				m = time.Month(month)
			}

			period := core.MonthPeriod(year, m, ledger.Location)
			agg, err := ledger.Service.MonthlyAggregate(cmd.Context(), period)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), period, agg)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func printSummary(out io.Writer, period core.Period, agg core.MonthlyAggregate) {
	fmt.Fprintln(out, period.Title())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	defer w.Flush()
	fmt.Fprintf(w, "Expenses\t%s\t\n", core.FormatMoney(agg.TotalExpenses))
	fmt.Fprintf(w, "Income\t%s\t\n", core.FormatMoney(agg.TotalIncome))
	fmt.Fprintf(w, "Savings\t%s\t\n", core.FormatMoney(agg.Savings()))
}
