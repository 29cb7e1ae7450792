package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"
)

// Redelivery happens within minutes; ids older than a day are forgotten.
const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

// AggregateReader computes the aggregate for a period.
type AggregateReader interface {
	MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error)
}

// MonthSummary is the worker's view of one month.
type MonthSummary struct {
	Period    core.Period
	Aggregate core.MonthlyAggregate
	UpdatedAt time.Time
	Events    int
}

// SummaryWorker keeps per-month aggregates current by recomputing the
// affected month whenever a ledger event arrives.
type SummaryWorker struct {
	store AggregateReader
	loc   *time.Location
	now   func() time.Time

	mu        sync.RWMutex
	summaries map[string]MonthSummary

	seen cache.Cache[struct{}]
}

func NewSummaryWorker(store AggregateReader, loc *time.Location) *SummaryWorker {
	if loc == nil {
		loc = time.Local
	}
	return &SummaryWorker{
		store:     store,
		loc:       loc,
		now:       time.Now,
		summaries: make(map[string]MonthSummary),
		seen:      cache.NewLRUCache[struct{}](seenCapacity, seenTTL),
	}
}

// HandleLedgerEvent recomputes the month of the event's transaction date.
// Redelivered events are acknowledged without recomputation.
func (w *SummaryWorker) HandleLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	if _, dup := w.seen.Get(e.ID.String()); dup {
		slog.DebugContext(ctx, "Duplicate ledger event ignored", "event_id", e.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", e.ID,
		"kind", e.Kind,
		"transaction_id", e.TransactionID)

	date := e.Date
	if date.IsZero() {
		date = w.now()
	}
	local := date.In(w.loc)
	period := core.MonthPeriod(local.Year(), local.Month(), w.loc)

	summary, err := w.refresh(ctx, period)
	if err != nil {
		return err
	}

	w.seen.Set(e.ID.String(), struct{}{})
	w.mu.Lock()
	summary.Events = w.summaries[period.Key()].Events + 1
	w.summaries[period.Key()] = summary
	w.mu.Unlock()

	slog.InfoContext(ctx, "Monthly summary updated",
		"period", period.Title(),
		"total_expenses", summary.Aggregate.TotalExpenses.String(),
		"total_income", summary.Aggregate.TotalIncome.String(),
		"savings", summary.Aggregate.Savings().String())

	return nil
}

// RefreshCurrentMonth recomputes the month containing now. Used at startup
// and on each tick to recover from missed events.
func (w *SummaryWorker) RefreshCurrentMonth(ctx context.Context) error {
	period := core.CurrentMonth(w.now().In(w.loc))
	summary, err := w.refresh(ctx, period)
	if err != nil {
		return err
	}

	w.mu.Lock()
	summary.Events = w.summaries[period.Key()].Events
	w.summaries[period.Key()] = summary
	w.mu.Unlock()
	return nil
}

func (w *SummaryWorker) refresh(ctx context.Context, period core.Period) (MonthSummary, error) {
	agg, err := w.store.MonthlyAggregate(ctx, period)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("recompute %s: %w", period.Title(), err)
	}
	return MonthSummary{Period: period, Aggregate: agg, UpdatedAt: w.now()}, nil
}

// Run refreshes the current month every interval until ctx is done.
func (w *SummaryWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RefreshCurrentMonth(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup summary refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.RefreshCurrentMonth(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic summary refresh failed", "error", err)
			}
		}
	}
}

// Summaries returns the tracked months, oldest first.
func (w *SummaryWorker) Summaries() []MonthSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]MonthSummary, 0, len(w.summaries))
	for _, s := range w.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.Start.Before(out[j].Period.Start)
	})
	return out
}
