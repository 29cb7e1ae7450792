package core

import "github.com/shopspring/decimal"

// MonthlyAggregate holds per-type sums for a period. Both totals are zero
// when nothing matches.
type MonthlyAggregate struct {
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
}

// Savings is income minus expenses.
func (a MonthlyAggregate) Savings() decimal.Decimal {
	return a.TotalIncome.Sub(a.TotalExpenses)
}

func (a MonthlyAggregate) Equal(b MonthlyAggregate) bool {
	return a.TotalExpenses.Equal(b.TotalExpenses) && a.TotalIncome.Equal(b.TotalIncome)
}

// Snapshot is one consistent read of everything the home screen shows.
type Snapshot struct {
	Transactions []Transaction
	Categories   []Category
	Aggregate    MonthlyAggregate
	Period       Period
}

// Clone copies the slices so callers cannot mutate shared state.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Categories = append([]Category(nil), s.Categories...)
	return out
}
