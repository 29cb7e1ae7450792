// Package cli holds the bootstrap steps shared by the budgetbuddy
// subcommands: env loading, logging, config, and ledger wiring.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/core"
	applog "budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
	"budgetbuddy/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads and validates the environment.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", applog.FieldError, err)
	}
	return logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Ledger bundles everything a subcommand needs to work with the ledger.
type Ledger struct {
	Repo     *storage.SQLiteRepository
	Service  *services.LedgerService
	AMQP     *amqp.Client
	Cache    *cache.LRUCache[core.MonthlyAggregate]
	Location *time.Location
}

// OpenRepository opens and migrates the SQLite store, installing the
// bundled database on first launch when one is configured.
func OpenRepository(cfg *config.Config, logger *applog.Logger) (*storage.SQLiteRepository, error) {
	var opts []storage.Option
	if cfg.BundledDBPath != "" {
		opts = append(opts, storage.WithBundledDatabase(cfg.BundledDBPath))
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, opts...)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		return nil, err
	}
	return repo, nil
}

// OpenLedger opens the SQLite store, connects to AMQP when configured and
// builds the ledger service. An AMQP failure is logged and the ledger runs
// without events.
func OpenLedger(cfg *config.Config, logger *applog.Logger) (*Ledger, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	repo, err := OpenRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		Repo:     repo,
		Cache:    cache.NewLRUCache[core.MonthlyAggregate](cfg.CacheSize, cfg.CacheTTL),
		Location: loc,
	}

	svcOpts := []services.Option{
		services.WithAggregateCache(l.Cache),
		services.WithLogger(logger),
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", applog.FieldError, err)
		} else {
			l.AMQP = client
			svcOpts = append(svcOpts, services.WithPublisher(client))
		}
	}

	l.Service = services.NewLedgerService(repo, svcOpts...)
	return l, nil
}

// Close releases the AMQP connection and the database.
func (l *Ledger) Close() error {
	var errs []error
	if l.AMQP != nil {
		if err := l.AMQP.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if l.Repo != nil {
		if err := l.Repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
