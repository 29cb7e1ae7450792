// Package compose drives the add-transaction form: pick a type, pick a
// category of that type, enter an amount and description, submit.
package compose

import (
	"context"
	"fmt"
	"time"

	"budgetbuddy/internal/core"
)

type State int

const (
	NoSelection State = iota
	TypeChosen
	CategoryChosen
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case TypeChosen:
		return "type_chosen"
	case CategoryChosen:
		return "category_chosen"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CategoryLister returns the categories selectable for a type.
type CategoryLister interface {
	CategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error)
}

// Submitter persists a composed transaction and returns the refreshed state.
type Submitter interface {
	AddTransaction(ctx context.Context, in core.TransactionInput) (core.Snapshot, error)
}

// Form is a read-only view of the composer fields.
type Form struct {
	State       State
	Type        core.TransactionType
	Selectable  []core.Category
	Category    *core.Category
	AmountText  string
	Description string
}

// Composer is not safe for concurrent use; one instance backs one form.
type Composer struct {
	lister    CategoryLister
	submitter Submitter

	state       State
	txType      core.TransactionType
	selectable  []core.Category
	category    *core.Category
	amountText  string
	description string
}

func New(lister CategoryLister, submitter Submitter) *Composer {
	return &Composer{lister: lister, submitter: submitter}
}

// SelectType loads the categories of t and clears any chosen category.
// On a failed lookup the form is left untouched.
func (c *Composer) SelectType(ctx context.Context, t core.TransactionType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cats, err := c.lister.CategoriesByType(ctx, t)
	if err != nil {
		return fmt.Errorf("load %s categories: %w", t, err)
	}
	c.txType = t
	c.selectable = cats
	c.category = nil
	c.state = TypeChosen
	return nil
}

func (c *Composer) SelectCategory(id int64) error {
	if c.state == NoSelection {
		return fmt.Errorf("%w: choose a type first", core.ErrCategoryNotSelectable)
	}
	for i := range c.selectable {
		if c.selectable[i].ID == id {
			cat := c.selectable[i]
			c.category = &cat
			c.state = CategoryChosen
			return nil
		}
	}
	return fmt.Errorf("%w: id %d for %s", core.ErrCategoryNotSelectable, id, c.txType)
}

// SetAmountText applies the numeric filter to text. The filtered text is
// kept even when it does not parse so the user can fix it.
func (c *Composer) SetAmountText(text string) error {
	c.amountText = core.StripNonNumeric(text)
	_, err := core.ParseAmount(c.amountText)
	return err
}

func (c *Composer) SetDescription(s string) {
	c.description = s
}

func (c *Composer) Form() Form {
	f := Form{
		State:       c.state,
		Type:        c.txType,
		Selectable:  append([]core.Category(nil), c.selectable...),
		AmountText:  c.amountText,
		Description: c.description,
	}
	if c.category != nil {
		cat := *c.category
		f.Category = &cat
	}
	return f
}

// Input builds the insert candidate for the current fields.
func (c *Composer) Input(now time.Time) (core.TransactionInput, error) {
	if c.state != CategoryChosen || c.category == nil {
		return core.TransactionInput{}, core.ErrNoCategory
	}
	amount, err := core.ParseAmount(c.amountText)
	if err != nil {
		return core.TransactionInput{}, err
	}
	in := core.TransactionInput{
		CategoryID:  c.category.ID,
		Amount:      amount,
		Description: c.description,
		Date:        now.Truncate(time.Second),
		Type:        c.txType,
	}
	if err := in.Validate(); err != nil {
		return core.TransactionInput{}, err
	}
	return in, nil
}

// Submit hands the composed transaction to the submitter and resets the
// form on success. A failed submit keeps every field.
func (c *Composer) Submit(ctx context.Context, now time.Time) (core.Snapshot, error) {
	in, err := c.Input(now)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap, err := c.submitter.AddTransaction(ctx, in)
	if err != nil {
		return core.Snapshot{}, err
	}
	c.Reset()
	return snap, nil
}

func (c *Composer) Reset() {
	c.state = NoSelection
	c.txType = ""
	c.selectable = nil
	c.category = nil
	c.amountText = ""
	c.description = ""
}
