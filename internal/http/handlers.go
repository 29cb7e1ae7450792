package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetbuddy/internal/compose"
	"budgetbuddy/internal/core"
	applog "budgetbuddy/internal/log"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 16 << 10

// transactionRequest is the body of POST /api/transactions.
type transactionRequest struct {
	Type        string      `json:"type"`
	CategoryID  int64       `json:"category_id"`
	Amount      amountField `json:"amount"`
	Description string      `json:"description"`
}

// fail logs server errors and writes the mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), msg, applog.FieldError, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

type homePage struct {
	Period       string
	Summary      core.MonthlyAggregate
	Transactions []transactionJSON
	Expense      []core.Category
	Income       []core.Category
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap, err := s.ledger.Load(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Home load failed", applog.FieldError, err)
		http.Error(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	page := homePage{
		Period:       snap.Period.Title(),
		Summary:      snap.Aggregate,
		Transactions: toTransactionsJSON(snap),
	}
	for _, c := range snap.Categories {
		switch c.Type {
		case core.Expense:
			page.Expense = append(page.Expense, c)
		case core.Income:
			page.Income = append(page.Income, c)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "home.html", page); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Home template execution failed",
			applog.FieldError, err, "template", "home.html")
	}
}

func (s *Server) handleAPIHome(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Load(r.Context())
	if err != nil {
		s.fail(w, r, "Home load failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toHomeJSON(snap))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Load(r.Context())
	if err != nil {
		s.fail(w, r, "Transaction list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionsJSON(snap))
}

// handleCreateTransaction runs the request through a fresh composer so the
// API applies the same rules as the form.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransactionRequest(w, r)
	if err != nil {
		s.fail(w, r, "Decode transaction failed", err)
		return
	}

	t, err := core.ParseTransactionType(req.Type)
	if err != nil {
		s.fail(w, r, "Invalid transaction type", err)
		return
	}

	c := compose.New(s.ledger, s.ledger)
	if err := c.SelectType(r.Context(), t); err != nil {
		s.fail(w, r, "Category lookup failed", err)
		return
	}
	if err := c.SelectCategory(req.CategoryID); err != nil {
		s.fail(w, r, "Category selection failed", err)
		return
	}
	if err := c.SetAmountText(string(req.Amount)); err != nil {
		s.fail(w, r, "Invalid amount", err)
		return
	}
	c.SetDescription(sanitizeInput(req.Description))

	snap, err := c.Submit(r.Context(), s.now())
	if err != nil {
		s.fail(w, r, "Add transaction failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHomeJSON(snap))
}

func decodeTransactionRequest(w http.ResponseWriter, r *http.Request) (transactionRequest, error) {
	var req transactionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	req.Type = r.PostForm.Get("type")
	req.Amount = amountField(r.PostForm.Get("amount"))
	req.Description = r.PostForm.Get("description")
	if v := strings.TrimSpace(r.PostForm.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("%w: category_id %q", errBadRequest, v)
		}
		req.CategoryID = id
	}
	return req, nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	snap, _, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Delete transaction failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toHomeJSON(snap))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		cats []core.Category
		err  error
	)
	if v := r.URL.Query().Get("type"); v != "" {
		t, perr := core.ParseTransactionType(v)
		if perr != nil {
			s.fail(w, r, "Invalid category type", perr)
			return
		}
		cats, err = s.ledger.CategoriesByType(r.Context(), t)
	} else {
		cats, err = s.ledger.Categories(r.Context())
	}
	if err != nil {
		s.fail(w, r, "Category list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoriesJSON(cats))
}

// handleSummary defaults to the current month in the ledger timezone.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = m
	}

	period := core.MonthPeriod(year, time.Month(month), now.Location())
	agg, err := s.ledger.MonthlyAggregate(r.Context(), period)
	if err != nil {
		s.fail(w, r, "Summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(period, agg))
}
