package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"

	"github.com/shopspring/decimal"
)

type fakeAggregates struct {
	calls []core.Period
	byKey map[string]core.MonthlyAggregate
	err   error
}

func (f *fakeAggregates) MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error) {
	f.calls = append(f.calls, period)
	if f.err != nil {
		return core.MonthlyAggregate{}, f.err
	}
	return f.byKey[period.Key()], nil
}

func TestSummaryWorker_HandleLedgerEvent(t *testing.T) {
	oct := core.MonthPeriod(2026, time.October, time.UTC)
	store := &fakeAggregates{byKey: map[string]core.MonthlyAggregate{
		oct.Key(): {TotalExpenses: decimal.NewFromInt(50), TotalIncome: decimal.NewFromInt(1200)},
	}}
	w := NewSummaryWorker(store, time.UTC)

	e := amqp.NewTransactionCreated(core.Transaction{
		ID:   1,
		Type: core.Expense,
		Date: time.Date(2026, time.October, 3, 8, 0, 0, 0, time.UTC),
	})
	if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if len(store.calls) != 1 || store.calls[0] != oct {
		t.Fatalf("recomputed %v, want October 2026", store.calls)
	}
	got := w.Summaries()
	if len(got) != 1 {
		t.Fatalf("summaries = %d, want 1", len(got))
	}
	if !got[0].Aggregate.Savings().Equal(decimal.NewFromInt(1150)) {
		t.Errorf("savings = %s, want 1150", got[0].Aggregate.Savings())
	}
	if got[0].Events != 1 {
		t.Errorf("events = %d, want 1", got[0].Events)
	}

	// Redelivery is a no-op.
	if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(store.calls) != 1 {
		t.Errorf("redelivery recomputed: calls = %d", len(store.calls))
	}
}

func TestSummaryWorker_SeenEventsAreBounded(t *testing.T) {
	store := &fakeAggregates{}
	w := NewSummaryWorker(store, time.UTC)
	w.seen = cache.NewLRUCache[struct{}](2, time.Hour)

	date := time.Date(2026, time.October, 3, 8, 0, 0, 0, time.UTC)
	var events []*amqp.LedgerEvent
	for id := int64(1); id <= 3; id++ {
		e := amqp.NewTransactionCreated(core.Transaction{ID: id, Date: date})
		if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
			t.Fatalf("event %d: %v", id, err)
		}
		events = append(events, e)
	}
	if got := w.seen.Size(); got != 2 {
		t.Fatalf("seen size = %d, want 2", got)
	}

	// The newest id is still remembered.
	if err := w.HandleLedgerEvent(context.Background(), events[2]); err != nil {
		t.Fatal(err)
	}
	if len(store.calls) != 3 {
		t.Errorf("calls = %d after a recent redelivery, want 3", len(store.calls))
	}

	// The oldest was evicted, so it is recomputed.
	if err := w.HandleLedgerEvent(context.Background(), events[0]); err != nil {
		t.Fatal(err)
	}
	if len(store.calls) != 4 {
		t.Errorf("calls = %d after an evicted redelivery, want 4", len(store.calls))
	}
}

func TestSummaryWorker_EventMonthUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	store := &fakeAggregates{}
	w := NewSummaryWorker(store, loc)

	// 02:00 UTC on Nov 1 is still October 31 in UTC-5.
	e := amqp.NewTransactionDeleted(core.Transaction{ID: 9, Date: time.Date(2026, time.November, 1, 2, 0, 0, 0, time.UTC)})
	if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	want := core.MonthPeriod(2026, time.October, loc)
	if store.calls[0] != want {
		t.Errorf("period = %v, want %v", store.calls[0], want)
	}
}

func TestSummaryWorker_StoreErrorRequeues(t *testing.T) {
	store := &fakeAggregates{err: core.ErrStoreUnavailable}
	w := NewSummaryWorker(store, time.UTC)
	e := amqp.NewTransactionCreated(core.Transaction{ID: 1, Date: time.Now()})

	if err := w.HandleLedgerEvent(context.Background(), e); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}

	// The failed event is not marked seen, so a retry recomputes.
	store.err = nil
	if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(store.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(store.calls))
	}
}

func TestSummaryWorker_RefreshCurrentMonthAndOrdering(t *testing.T) {
	store := &fakeAggregates{}
	w := NewSummaryWorker(store, time.UTC)
	w.now = func() time.Time { return time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC) }

	e := amqp.NewTransactionCreated(core.Transaction{ID: 1, Date: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)})
	if err := w.HandleLedgerEvent(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if err := w.RefreshCurrentMonth(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := w.Summaries()
	if len(got) != 2 {
		t.Fatalf("summaries = %d, want 2", len(got))
	}
	if got[0].Period.Title() != "March 2026" || got[1].Period.Title() != "October 2026" {
		t.Errorf("order = %s, %s", got[0].Period.Title(), got[1].Period.Title())
	}
}

func TestSummaryWorker_RunStopsOnCancel(t *testing.T) {
	w := NewSummaryWorker(&fakeAggregates{}, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
