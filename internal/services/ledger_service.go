package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/compose"
	"budgetbuddy/internal/core"
	applog "budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

// LedgerStore is the persistence surface the service needs.
// *storage.SQLiteRepository implements it.
type LedgerStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListCategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error)
	Snapshot(ctx context.Context, period core.Period) (core.Snapshot, error)
	Mutate(ctx context.Context, period core.Period, fn func(ctx context.Context, tx storage.Tx) error) (core.Snapshot, error)
}

// EventPublisher announces committed mutations. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error
}

type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithAggregateCache(c cache.Cache[core.MonthlyAggregate]) Option {
	return func(s *LedgerService) { s.aggregates = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *LedgerService) { s.log = applog.NewStructuredLogger(l.WithComponent(applog.ComponentLedger)) }
}

// LedgerService owns the last consistent snapshot of the ledger and is the
// only writer. Every mutation replaces the snapshot with the state read
// back inside the same database transaction.
type LedgerService struct {
	store      LedgerStore
	publisher  EventPublisher
	aggregates cache.Cache[core.MonthlyAggregate]
	now        func() time.Time
	log        *applog.StructuredLogger

	writeMu sync.Mutex

	// gen counts commits; a cache fill started before a commit is dropped.
	mu    sync.RWMutex
	gen   uint64
	state core.Snapshot
}

// eventTimeout bounds a publish after the mutation has committed.
const eventTimeout = 2 * time.Second

func NewLedgerService(store LedgerStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = applog.NewStructuredLogger(applog.FromContext(context.Background()).WithComponent(applog.ComponentLedger))
	}
	if s.aggregates == nil {
		s.aggregates = cache.NewLRUCache[core.MonthlyAggregate](100, 5*time.Minute)
	}
	return s
}

func (s *LedgerService) currentPeriod() core.Period {
	return core.CurrentMonth(s.now())
}

// Load refreshes the snapshot for the current month.
func (s *LedgerService) Load(ctx context.Context) (core.Snapshot, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	snap, err := s.store.Snapshot(ctx, s.currentPeriod())
	if err != nil {
		s.log.LogError(ctx, "Failed to load ledger", err, applog.ComponentLedger, applog.OpRead, nil)
		return core.Snapshot{}, fmt.Errorf("load ledger: %w", err)
	}
	s.mu.Lock()
	if s.gen == gen {
		s.state = snap
	}
	s.mu.Unlock()
	return snap.Clone(), nil
}

// State returns a copy of the last consistent snapshot.
func (s *LedgerService) State() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// CategoriesByType lists the categories selectable for t.
func (s *LedgerService) CategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cats, err := s.store.ListCategoriesByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", t, err)
	}
	return cats, nil
}

// MonthlyAggregate reads the current month from the store on every call,
// since other processes may write to the same database. Past months are
// served from the cache.
func (s *LedgerService) MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error) {
	key := period.Key()
	current := key == s.currentPeriod().Key()
	if !current {
		if agg, ok := s.aggregates.Get(key); ok {
			return agg, nil
		}
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	agg, err := s.store.MonthlyAggregate(ctx, period)
	if err != nil {
		return core.MonthlyAggregate{}, fmt.Errorf("monthly aggregate: %w", err)
	}
	if current {
		return agg, nil
	}

	s.mu.Lock()
	if s.gen == gen {
		s.aggregates.Set(key, agg)
	}
	s.mu.Unlock()
	return agg, nil
}

// AddTransaction validates in, checks it against its category and inserts
// it. The category lookup runs in the same database transaction as the
// insert and the refresh.
func (s *LedgerService) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Snapshot, error) {
	if err := in.Validate(); err != nil {
		return core.Snapshot{}, err
	}

	var id int64
	snap, err := s.mutate(ctx, func(ctx context.Context, tx storage.Tx) error {
		cat, err := tx.GetCategory(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if cat.Type != in.Type {
			return fmt.Errorf("%w: category %q is %s, transaction is %s",
				core.ErrCategoryTypeMismatch, cat.Name, cat.Type, in.Type)
		}
		id, err = tx.InsertTransaction(ctx, in)
		return err
	})
	if err != nil {
		s.log.LogError(ctx, "Failed to add transaction", err, applog.ComponentLedger, applog.OpCreate,
			applog.NewFields().WithTransaction(0, in.CategoryID, in.Amount, in.Type.String()))
		return core.Snapshot{}, fmt.Errorf("add transaction: %w", err)
	}

	s.log.LogTransactionCreated(ctx, id, in.CategoryID, in.Amount, in.Type.String())

	created := core.Transaction{
		ID:          id,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		Type:        in.Type,
	}
	s.publish(ctx, amqp.NewTransactionCreated(created))

	return snap.Clone(), nil
}

// DeleteTransaction removes id and reports whether a row was removed. A
// missing id is not an error and publishes nothing.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.Snapshot, bool, error) {
	// Fetched for the event payload only; a miss is resolved by the delete.
	victim, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		victim = core.Transaction{ID: id}
	}

	var removed bool
	snap, err := s.mutate(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		removed, err = tx.DeleteTransaction(ctx, id)
		return err
	})
	if err != nil {
		s.log.LogError(ctx, "Failed to delete transaction", err, applog.ComponentLedger, applog.OpDelete,
			applog.LogFields{applog.FieldTransactionID: id})
		return core.Snapshot{}, false, fmt.Errorf("delete transaction: %w", err)
	}

	s.log.LogTransactionDeleted(ctx, id, removed)

	if removed {
		s.publish(ctx, amqp.NewTransactionDeleted(victim))
	}

	return snap.Clone(), removed, nil
}

// mutate serializes writers from this process and commits the refreshed
// snapshot. Events are published after it returns.
func (s *LedgerService) mutate(ctx context.Context, fn func(context.Context, storage.Tx) error) (core.Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.store.Mutate(ctx, s.currentPeriod(), fn)
	if err != nil {
		return core.Snapshot{}, err
	}
	s.commit(snap)
	return snap, nil
}

func (s *LedgerService) commit(snap core.Snapshot) {
	s.mu.Lock()
	s.gen++
	s.aggregates.Purge()
	s.state = snap
	s.mu.Unlock()
}

func (s *LedgerService) publish(ctx context.Context, e *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event", "kind", e.Kind)
		return
	}
	// The request may be cancelled once the response is written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()

	if err := s.publisher.PublishLedgerEvent(ctx, e); err != nil {
		// The mutation is committed; a lost event is logged only.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", e.Kind,
			"transaction_id", e.TransactionID,
			"error", err)
	}
}

var (
	_ compose.CategoryLister = (*LedgerService)(nil)
	_ compose.Submitter      = (*LedgerService)(nil)
	_ LedgerStore            = (*storage.SQLiteRepository)(nil)
)
