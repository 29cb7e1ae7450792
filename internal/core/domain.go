package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "Expense"
	Income  TransactionType = "Income"
)

const maxDescriptionLength = 200

type (
	// TransactionType partitions categories and transactions.
	TransactionType string

	// Category is seed data; the application never creates or edits one.
	Category struct {
		ID   int64
		Name string
		Type TransactionType
	}

	// Transaction is a single recorded income or expense event.
	Transaction struct {
		ID          int64
		CategoryID  int64
		Amount      decimal.Decimal
		Description string
		Date        time.Time // whole seconds
		Type        TransactionType
	}

	// TransactionInput is an insert candidate. Type is copied from the
	// chosen category at composition time.
	TransactionInput struct {
		CategoryID  int64
		Amount      decimal.Decimal
		Description string
		Date        time.Time
		Type        TransactionType
	}
)

var (
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrDescriptionTooLong    = errors.New("description too long (max 200 characters)")
	ErrMissingDate           = errors.New("date cannot be zero")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryTypeMismatch  = errors.New("transaction type does not match category type")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrNoCategory            = errors.New("no category selected")
	ErrCategoryNotSelectable = errors.New("category not selectable for the chosen type")
)

// ParseTransactionType accepts the stored spelling only.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case Expense, Income:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) Validate() error {
	if t != Expense && t != Income {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	return nil
}

func (t TransactionType) String() string {
	return string(t)
}

func (in TransactionInput) Validate() error {
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if in.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if len(in.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// CategoryName resolves a transaction's category label the way the list
// view does, falling back to "Default" for unknown ids.
func CategoryName(categories []Category, id int64) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return "Default"
}
