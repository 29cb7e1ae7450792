package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbuddy/internal/core"

	_ "modernc.org/sqlite"
)

// Tx is the write surface available inside Mutate.
type Tx interface {
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

type repoOptions struct {
	bundledPath string
}

type Option func(*repoOptions)

// WithBundledDatabase installs the file at path as the database when the
// target does not exist yet.
func WithBundledDatabase(path string) Option {
	return func(o *repoOptions) {
		o.bundledPath = path
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	var o repoOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %v", core.ErrStoreUnavailable, err)
	}

	copied, err := copyBundledDatabase(o.bundledPath, dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	if copied {
		slog.Info("Installed bundled database", "source", o.bundledPath, "path", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %v", core.ErrStoreUnavailable, err)
	}
	// One writer per SQLite file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", core.ErrStoreUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// ListTransactions returns every transaction, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return listTransactionsWith(ctx, r.queries)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return listCategoriesWith(ctx, r.queries)
}

// ListCategoriesByType backs the dependent category picker.
func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	rows, err := r.queries.ListCategoriesByType(ctx, string(t))
	if err != nil {
		return nil, fmt.Errorf("list categories by type %s: %w", t, err)
	}
	return toCoreCategories(rows), nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return ledgerTx{q: r.queries}.GetCategory(ctx, id)
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return toCoreTransaction(row), nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	return ledgerTx{q: r.queries}.InsertTransaction(ctx, in)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	return ledgerTx{q: r.queries}.DeleteTransaction(ctx, id)
}

// MonthlyAggregate sums amounts per type for rows dated within the period.
func (r *SQLiteRepository) MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error) {
	return monthlyAggregateWith(ctx, r.queries, period)
}

// Snapshot performs the three refresh reads in one transaction.
func (r *SQLiteRepository) Snapshot(ctx context.Context, period core.Period) (core.Snapshot, error) {
	var snap core.Snapshot
	err := r.inTx(ctx, func(q *Queries) error {
		var err error
		snap, err = snapshotWith(ctx, q, period)
		return err
	})
	return snap, err
}

// Mutate runs fn and the refresh reads under a single BEGIN/COMMIT. A
// failure anywhere rolls back the mutation too, so callers never see a
// committed change without the state that reflects it.
func (r *SQLiteRepository) Mutate(ctx context.Context, period core.Period, fn func(ctx context.Context, tx Tx) error) (core.Snapshot, error) {
	var snap core.Snapshot
	err := r.inTx(ctx, func(q *Queries) error {
		if err := fn(ctx, ledgerTx{q: q}); err != nil {
			return err
		}
		var err error
		snap, err = snapshotWith(ctx, q, period)
		return err
	})
	return snap, err
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func snapshotWith(ctx context.Context, q *Queries, period core.Period) (core.Snapshot, error) {
	txns, err := listTransactionsWith(ctx, q)
	if err != nil {
		return core.Snapshot{}, err
	}
	cats, err := listCategoriesWith(ctx, q)
	if err != nil {
		return core.Snapshot{}, err
	}
	agg, err := monthlyAggregateWith(ctx, q, period)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{
		Transactions: txns,
		Categories:   cats,
		Aggregate:    agg,
		Period:       period,
	}, nil
}

func listTransactionsWith(ctx context.Context, q *Queries) ([]core.Transaction, error) {
	rows, err := q.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = toCoreTransaction(row)
	}
	return out, nil
}

func listCategoriesWith(ctx context.Context, q *Queries) ([]core.Category, error) {
	rows, err := q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return toCoreCategories(rows), nil
}

func monthlyAggregateWith(ctx context.Context, q *Queries, period core.Period) (core.MonthlyAggregate, error) {
	start, end := period.Bounds()
	row, err := q.MonthlyTotals(ctx, MonthlyTotalsParams{Start: start, End: end})
	if err != nil {
		return core.MonthlyAggregate{}, fmt.Errorf("monthly aggregate: %w", err)
	}
	return core.MonthlyAggregate{
		TotalExpenses: row.TotalExpenses,
		TotalIncome:   row.TotalIncome,
	}, nil
}

type ledgerTx struct {
	q *Queries
}

func (t ledgerTx) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := t.q.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("%w: id %d", core.ErrCategoryNotFound, id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return toCoreCategory(row), nil
}

func (t ledgerTx) InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	id, err := t.q.CreateTransaction(ctx, CreateTransactionParams{
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Date:        in.Date.UnixMilli() / 1000,
		Description: in.Description,
		Type:        string(in.Type),
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"category_id", in.CategoryID,
		"amount", in.Amount.String(),
		"type", in.Type)

	return id, nil
}

// DeleteTransaction reports whether a row was removed. A missing id is
// not an error.
func (t ledgerTx) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	n, err := t.q.DeleteTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Delete matched no transaction", "id", id)
	}
	return n > 0, nil
}

func toCoreTransaction(row Transaction) core.Transaction {
	return core.Transaction{
		ID:          row.ID,
		CategoryID:  row.CategoryID.Int64,
		Amount:      row.Amount,
		Description: row.Description.String,
		Date:        time.Unix(int64(row.Date), 0),
		Type:        core.TransactionType(row.Type),
	}
}

func toCoreCategory(row Category) core.Category {
	return core.Category{ID: row.ID, Name: row.Name, Type: core.TransactionType(row.Type)}
}

func toCoreCategories(rows []Category) []core.Category {
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = toCoreCategory(row)
	}
	return out
}
