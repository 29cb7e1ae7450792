package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbuddy/internal/core"

	"github.com/shopspring/decimal"
)

var seeded = []core.Category{
	{ID: 1, Name: "Groceries", Type: core.Expense},
	{ID: 2, Name: "Rent", Type: core.Expense},
	{ID: 5, Name: "Salary", Type: core.Income},
	{ID: 8, Name: "Freelancing", Type: core.Income},
}

type fakeLister struct {
	calls int
	err   error
}

func (f *fakeLister) CategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Category
	for _, c := range seeded {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	got []core.TransactionInput
	err error
}

func (f *fakeSubmitter) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Snapshot, error) {
	if f.err != nil {
		return core.Snapshot{}, f.err
	}
	f.got = append(f.got, in)
	return core.Snapshot{Transactions: []core.Transaction{{ID: int64(len(f.got)), CategoryID: in.CategoryID}}}, nil
}

func TestComposer_SelectTypeFiltersCategories(t *testing.T) {
	lister := &fakeLister{}
	c := New(lister, &fakeSubmitter{})

	if err := c.SelectType(context.Background(), core.Income); err != nil {
		t.Fatalf("SelectType: %v", err)
	}
	f := c.Form()
	if f.State != TypeChosen {
		t.Errorf("state = %v, want %v", f.State, TypeChosen)
	}
	if len(f.Selectable) != 2 {
		t.Fatalf("selectable = %d, want 2", len(f.Selectable))
	}
	for _, cat := range f.Selectable {
		if cat.Type != core.Income {
			t.Errorf("category %s has type %s", cat.Name, cat.Type)
		}
	}
}

func TestComposer_ChangingTypeClearsCategory(t *testing.T) {
	lister := &fakeLister{}
	c := New(lister, &fakeSubmitter{})
	ctx := context.Background()

	if err := c.SelectType(ctx, core.Expense); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory(1); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectType(ctx, core.Income); err != nil {
		t.Fatal(err)
	}

	f := c.Form()
	if f.Category != nil {
		t.Errorf("category = %+v, want cleared", f.Category)
	}
	if f.State != TypeChosen {
		t.Errorf("state = %v, want %v", f.State, TypeChosen)
	}
	if lister.calls != 2 {
		t.Errorf("lister calls = %d, want 2", lister.calls)
	}
}

func TestComposer_SelectCategory(t *testing.T) {
	tests := []struct {
		name    string
		txType  core.TransactionType
		id      int64
		wantErr error
	}{
		{name: "expense category", txType: core.Expense, id: 2},
		{name: "income category", txType: core.Income, id: 5},
		{name: "income category under expense", txType: core.Expense, id: 5, wantErr: core.ErrCategoryNotSelectable},
		{name: "unknown id", txType: core.Income, id: 99, wantErr: core.ErrCategoryNotSelectable},
		{name: "no type chosen", id: 1, wantErr: core.ErrCategoryNotSelectable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeLister{}, &fakeSubmitter{})
			if tt.txType != "" {
				if err := c.SelectType(context.Background(), tt.txType); err != nil {
					t.Fatal(err)
				}
			}
			err := c.SelectCategory(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SelectCategory(%d) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr == nil && c.Form().State != CategoryChosen {
				t.Errorf("state = %v, want %v", c.Form().State, CategoryChosen)
			}
		})
	}
}

func TestComposer_SelectTypeRejectsUnknownType(t *testing.T) {
	lister := &fakeLister{}
	c := New(lister, &fakeSubmitter{})
	err := c.SelectType(context.Background(), core.TransactionType("Transfer"))
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("error = %v, want ErrInvalidType", err)
	}
	if lister.calls != 0 {
		t.Errorf("lister should not be called for an invalid type")
	}
}

func TestComposer_SelectTypeLookupFailureKeepsForm(t *testing.T) {
	lister := &fakeLister{}
	c := New(lister, &fakeSubmitter{})
	ctx := context.Background()

	if err := c.SelectType(ctx, core.Expense); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory(1); err != nil {
		t.Fatal(err)
	}

	lister.err = core.ErrStoreUnavailable
	if err := c.SelectType(ctx, core.Income); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
	f := c.Form()
	if f.Type != core.Expense || f.Category == nil || f.Category.ID != 1 {
		t.Errorf("form changed after failed lookup: %+v", f)
	}
}

func TestComposer_SubmitWithoutCategory(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(&fakeLister{}, sub)

	if _, err := c.Submit(context.Background(), time.Now()); !errors.Is(err, core.ErrNoCategory) {
		t.Fatalf("error = %v, want ErrNoCategory", err)
	}

	if err := c.SelectType(context.Background(), core.Expense); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit(context.Background(), time.Now()); !errors.Is(err, core.ErrNoCategory) {
		t.Fatalf("error = %v, want ErrNoCategory", err)
	}
	if len(sub.got) != 0 {
		t.Errorf("submitter called %d times", len(sub.got))
	}
}

func TestComposer_SubmitBuildsInputAndResets(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(&fakeLister{}, sub)
	ctx := context.Background()
	now := time.Date(2026, time.October, 16, 9, 30, 15, 500_000_000, time.UTC)

	if err := c.SelectType(ctx, core.Expense); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory(1); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAmountText("$1,250.75"); err != nil {
		t.Fatal(err)
	}
	c.SetDescription("Groceries")

	snap, err := c.Submit(ctx, now)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("snapshot transactions = %d, want 1", len(snap.Transactions))
	}

	if len(sub.got) != 1 {
		t.Fatalf("submitted %d inputs, want 1", len(sub.got))
	}
	in := sub.got[0]
	if in.CategoryID != 1 || in.Type != core.Expense {
		t.Errorf("input = %+v", in)
	}
	if !in.Amount.Equal(decimal.RequireFromString("1250.75")) {
		t.Errorf("amount = %s, want 1250.75", in.Amount)
	}
	if in.Description != "Groceries" {
		t.Errorf("description = %q", in.Description)
	}
	if !in.Date.Equal(now.Truncate(time.Second)) {
		t.Errorf("date = %v, want %v", in.Date, now.Truncate(time.Second))
	}

	f := c.Form()
	if f.State != NoSelection || f.Type != "" || f.Category != nil || f.AmountText != "" || f.Description != "" || len(f.Selectable) != 0 {
		t.Errorf("form not reset: %+v", f)
	}
}

func TestComposer_EmptyAmountSubmitsZero(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(&fakeLister{}, sub)
	ctx := context.Background()

	if err := c.SelectType(ctx, core.Income); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory(5); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAmountText("abc"); err != nil {
		t.Fatalf("SetAmountText: %v", err)
	}
	if _, err := c.Submit(ctx, time.Now()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !sub.got[0].Amount.IsZero() {
		t.Errorf("amount = %s, want 0", sub.got[0].Amount)
	}
}

func TestComposer_FailedSubmitKeepsForm(t *testing.T) {
	sub := &fakeSubmitter{err: core.ErrStoreUnavailable}
	c := New(&fakeLister{}, sub)
	ctx := context.Background()

	if err := c.SelectType(ctx, core.Expense); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectCategory(2); err != nil {
		t.Fatal(err)
	}
	_ = c.SetAmountText("900")
	c.SetDescription("October rent")

	if _, err := c.Submit(ctx, time.Now()); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
	f := c.Form()
	if f.State != CategoryChosen || f.AmountText != "900" || f.Description != "October rent" {
		t.Errorf("form lost after failure: %+v", f)
	}
}

func TestComposer_InvalidAmount(t *testing.T) {
	c := New(&fakeLister{}, &fakeSubmitter{})
	if err := c.SetAmountText("1.2.3"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
	if c.Form().AmountText != "1.2.3" {
		t.Errorf("amount text = %q", c.Form().AmountText)
	}
}

func TestState_String(t *testing.T) {
	if got := CategoryChosen.String(); got != "category_chosen" {
		t.Errorf("String() = %q", got)
	}
	if got := State(9).String(); got != "state(9)" {
		t.Errorf("String() = %q", got)
	}
}
