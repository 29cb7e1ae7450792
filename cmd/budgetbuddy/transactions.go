package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/compose"
	"budgetbuddy/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List, add, and delete transactions",
	}
	cmd.AddCommand(a.listTransactionsCmd())
	cmd.AddCommand(a.addTransactionCmd())
	cmd.AddCommand(a.deleteTransactionCmd())
	return cmd
}

func (a *app) listTransactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every transaction, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := cli.OpenLedger(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			snap, err := ledger.Service.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snap.Transactions) == 0 {
				fmt.Fprintln(out, "No transactions yet. Use 'budgetbuddy transactions add' to record one.")
				return nil
			}
			printTransactions(out, snap)
			return nil
		},
	}
}

func printTransactions(out io.Writer, snap core.Snapshot) {
	loc := snap.Period.Start.Location()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, t := range snap.Transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Date.In(loc).Format("Mon Jan 02 2006"),
			t.Type,
			core.CategoryName(snap.Categories, t.CategoryID),
			core.FormatMoney(t.Amount),
			t.Description)
	}
}

func (a *app) addTransactionCmd() *cobra.Command {
	var (
		typeName    string
		categoryID  int64
		amount      string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction dated now",
		Example: `  budgetbuddy transactions add --type Expense --category 1 --amount 42.10 --description "Weekly shop"
  budgetbuddy transactions add --type Income --category 5 --amount '$1,200'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := core.ParseTransactionType(typeName)
			if err != nil {
				return err
			}

			ledger, err := cli.OpenLedger(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			c := compose.New(ledger.Service, ledger.Service)
			if err := c.SelectType(cmd.Context(), t); err != nil {
				return err
			}
			if err := c.SelectCategory(categoryID); err != nil {
				return err
			}
			if err := c.SetAmountText(amount); err != nil {
				return err
			}
			c.SetDescription(description)

			snap, err := c.Submit(cmd.Context(), time.Now().In(ledger.Location))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Transaction added.")
			printSummary(out, snap.Period, snap.Aggregate)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "Expense or Income")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id (see 'budgetbuddy categories')")
	cmd.Flags().StringVar(&amount, "amount", "", "amount; anything other than digits and '.' is ignored")
	cmd.Flags().StringVar(&description, "description", "", "optional note, at most 200 characters")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			ledger, err := cli.OpenLedger(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			snap, removed, err := ledger.Service.DeleteTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "No transaction with id %d.\n", id)
				return nil
			}
			fmt.Fprintf(out, "Transaction %d deleted.\n", id)
			printSummary(out, snap.Period, snap.Aggregate)
			return nil
		},
	}
}
