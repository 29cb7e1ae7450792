package main

import (
	"context"
	"fmt"
	"os"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/config"
	applog "budgetbuddy/internal/log"

	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE resolves for every subcommand.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "budgetbuddy",
		Short: "Personal income and expense ledger",
		Long: `budgetbuddy records income and expenses in a local SQLite ledger
and shows a running summary of the current month.

Configuration comes from the environment (or a .env file).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.workerCmd())
	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.transactionsCmd())
	root.AddCommand(a.categoriesCmd())
	root.AddCommand(a.summaryCmd())
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg).WithComponent(applog.ComponentCLI)
	return nil
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
