package main

import (
	"fmt"
	"text/tabwriter"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) categoriesCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the seeded categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := cli.OpenLedger(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			var cats []core.Category
			if typeName != "" {
				t, err := core.ParseTransactionType(typeName)
				if err != nil {
					return err
				}
				cats, err = ledger.Service.CategoriesByType(cmd.Context(), t)
				if err != nil {
					return err
				}
			} else {
				cats, err = ledger.Service.Categories(cmd.Context())
				if err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, c := range cats {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Type)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "only list Expense or Income categories")
	return cmd
}
