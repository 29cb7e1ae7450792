package storage

import (
	"context"
)

const listTransactions = `-- name: ListTransactions :many
SELECT id, category_id, amount, date, description, type FROM Transactions ORDER BY date DESC, id DESC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.CategoryID,
			&i.Amount,
			&i.Date,
			&i.Description,
			&i.Type,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, type FROM Categories
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	return q.queryCategories(ctx, listCategories)
}

const listCategoriesByType = `-- name: ListCategoriesByType :many
SELECT id, name, type FROM Categories WHERE type = ?
`

func (q *Queries) ListCategoriesByType(ctx context.Context, categoryType string) ([]Category, error) {
	return q.queryCategories(ctx, listCategoriesByType, categoryType)
}

func (q *Queries) queryCategories(ctx context.Context, query string, args ...interface{}) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Type); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `-- name: GetCategory :one
SELECT id, name, type FROM Categories WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Type)
	return i, err
}

const getTransaction = `-- name: GetTransaction :one
SELECT id, category_id, amount, date, description, type FROM Transactions WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.Amount,
		&i.Date,
		&i.Description,
		&i.Type,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :execlastid
INSERT INTO Transactions (category_id, amount, date, description, type) VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTransaction,
		arg.CategoryID,
		arg.Amount,
		arg.Date,
		arg.Description,
		arg.Type,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM Transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const monthlyTotals = `-- name: MonthlyTotals :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'Expense' THEN amount ELSE 0 END), 0) AS totalExpenses,
    COALESCE(SUM(CASE WHEN type = 'Income' THEN amount ELSE 0 END), 0) AS totalIncome
FROM Transactions
WHERE date >= ? AND date <= ?
`

func (q *Queries) MonthlyTotals(ctx context.Context, arg MonthlyTotalsParams) (MonthlyTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, monthlyTotals, arg.Start, arg.End)
	var i MonthlyTotalsRow
	err := row.Scan(&i.TotalExpenses, &i.TotalIncome)
	return i, err
}
