package main

import (
	"context"
	"errors"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errAMQPRequired = errors.New("worker requires AMQP_URL")

func (a *app) workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume ledger events and keep monthly summaries current",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWorker(cmd.Context())
		},
	}
}

func (a *app) runWorker(ctx context.Context) error {
	if !a.cfg.AMQPEnabled() {
		return errAMQPRequired
	}

	ledger, err := cli.OpenLedger(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer ledger.Close()
	if ledger.AMQP == nil {
		return errors.New("worker could not connect to AMQP")
	}

	w := worker.NewSummaryWorker(ledger.Repo, ledger.Location)
	a.logger.Info("Starting budgetbuddy worker",
		"queue", a.cfg.AMQPQueue,
		"refresh_interval", a.cfg.RefreshInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, a.cfg.RefreshInterval)
	})
	g.Go(func() error {
		err := ledger.AMQP.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	for _, s := range w.Summaries() {
		a.logger.Info("Month summary",
			"period", s.Period.Title(),
			"expenses", s.Aggregate.TotalExpenses.String(),
			"income", s.Aggregate.TotalIncome.String(),
			"events", s.Events)
	}
	if err != nil {
		a.logger.Error("Worker stopped with error", "error", err)
		return err
	}
	a.logger.Info("Worker shutdown complete")
	return nil
}
