package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/cli"
	apphttp "budgetbuddy/internal/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the home page and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	ledger, err := cli.OpenLedger(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	if _, err := ledger.Service.Load(ctx); err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+a.cfg.Port, ledger.Service, ledger.Repo, a.logger,
		apphttp.WithClock(func() time.Time { return time.Now().In(ledger.Location) }))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	janitor := cache.NewJanitor(a.cfg.CacheTTL, ledger.Cache)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return janitor.Run(gctx)
	})
	g.Go(func() error {
		a.logger.Info("Starting budgetbuddy server",
			"port", a.cfg.Port,
			"db", a.cfg.SQLiteDBPath,
			"amqp", ledger.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server error", "error", err)
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
