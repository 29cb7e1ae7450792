package storage

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64
	Name string
	Type string
}

// Transaction mirrors a Transactions row. Date is read as REAL because
// rows written by the mobile app carry fractional seconds.
type Transaction struct {
	ID          int64
	CategoryID  sql.NullInt64
	Amount      decimal.Decimal
	Date        float64
	Description sql.NullString
	Type        string
}

type MonthlyTotalsRow struct {
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
}

type CreateTransactionParams struct {
	CategoryID  int64
	Amount      decimal.Decimal
	Date        int64
	Description string
	Type        string
}

type MonthlyTotalsParams struct {
	Start int64
	End   int64
}
