package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"Expense", Expense, true},
		{"Income", Income, true},
		{" Income ", Income, true},
		{"expense", "", false},
		{"", "", false},
		{"Transfer", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidType) {
			t.Fatalf("%q expected ErrInvalidType, got %v", tc.in, err)
		}
	}
}

func TestTransactionInputValidate(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	good := TransactionInput{
		CategoryID:  1,
		Amount:      decimal.NewFromInt(50),
		Description: "Groceries",
		Date:        now,
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	empty := good
	empty.Description = ""
	empty.Amount = decimal.Zero
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty description and zero amount are accepted, got %v", err)
	}

	bads := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"bad type", TransactionInput{Amount: decimal.NewFromInt(1), Date: now, Type: "Other"}, ErrInvalidType},
		{"negative", TransactionInput{Amount: decimal.NewFromInt(-1), Date: now, Type: Income}, ErrNegativeAmount},
		{"zero date", TransactionInput{Amount: decimal.NewFromInt(1), Type: Income}, ErrMissingDate},
		{"long description", TransactionInput{Amount: decimal.NewFromInt(1), Date: now, Type: Income, Description: strings.Repeat("x", 201)}, ErrDescriptionTooLong},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.in.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCategoryName(t *testing.T) {
	cats := []Category{{ID: 1, Name: "Groceries", Type: Expense}, {ID: 5, Name: "Salary", Type: Income}}
	if got := CategoryName(cats, 5); got != "Salary" {
		t.Fatalf("expected Salary, got %q", got)
	}
	if got := CategoryName(cats, 42); got != "Default" {
		t.Fatalf("expected Default fallback, got %q", got)
	}
}

func TestMonthlyAggregateSavings(t *testing.T) {
	agg := MonthlyAggregate{TotalExpenses: decimal.NewFromInt(50), TotalIncome: decimal.NewFromInt(1200)}
	if !agg.Savings().Equal(decimal.NewFromInt(1150)) {
		t.Fatalf("expected savings 1150, got %s", agg.Savings())
	}
	var zero MonthlyAggregate
	if !zero.Savings().IsZero() {
		t.Fatalf("zero aggregate should have zero savings, got %s", zero.Savings())
	}
}
