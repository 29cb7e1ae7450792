package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetbuddy/internal/core"

	"github.com/shopspring/decimal"
)

const displayDateLayout = "Mon Jan 02 2006"

var templateFuncs = template.FuncMap{
	"money": core.FormatMoney,
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type transactionJSON struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"categoryId"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	DisplayDate string          `json:"displayDate"`
	Type        string          `json:"type"`
}

type summaryJSON struct {
	Period        string          `json:"period"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	Savings       decimal.Decimal `json:"savings"`
}

type homeJSON struct {
	Summary      summaryJSON       `json:"summary"`
	Transactions []transactionJSON `json:"transactions"`
	Categories   []categoryJSON    `json:"categories"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toCategoriesJSON(cats []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Type: c.Type.String()})
	}
	return out
}

// toTransactionsJSON joins each row with its category name and renders
// dates in the snapshot's timezone.
func toTransactionsJSON(snap core.Snapshot) []transactionJSON {
	loc := snap.Period.Start.Location()
	out := make([]transactionJSON, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		date := t.Date.In(loc)
		out = append(out, transactionJSON{
			ID:          t.ID,
			CategoryID:  t.CategoryID,
			Category:    core.CategoryName(snap.Categories, t.CategoryID),
			Amount:      t.Amount,
			Description: t.Description,
			Date:        date,
			DisplayDate: date.Format(displayDateLayout),
			Type:        t.Type.String(),
		})
	}
	return out
}

func toSummaryJSON(p core.Period, agg core.MonthlyAggregate) summaryJSON {
	return summaryJSON{
		Period:        p.Title(),
		TotalExpenses: agg.TotalExpenses,
		TotalIncome:   agg.TotalIncome,
		Savings:       agg.Savings(),
	}
}

func toHomeJSON(snap core.Snapshot) homeJSON {
	return homeJSON{
		Summary:      toSummaryJSON(snap.Period, snap.Aggregate),
		Transactions: toTransactionsJSON(snap),
		Categories:   toCategoriesJSON(snap.Categories),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorJSON{Error: msg})
}

var errBadRequest = errors.New("bad request")

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrMissingDate),
		errors.Is(err, core.ErrNoCategory),
		errors.Is(err, core.ErrCategoryNotSelectable),
		errors.Is(err, core.ErrCategoryTypeMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// amountField accepts a JSON string or number.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountField(n.String())
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errBadRequest
	}
	return id, nil
}
