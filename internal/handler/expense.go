package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pkordes/claimtrack/internal/domain"
)

// expenseRequest is the body of POST /claims/{id}/expenses and
// PUT /claims/{id}/expenses/{expenseID}. PUT replaces every field, so an
// absent receipt clears the stored one.
type expenseRequest struct {
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	OccurredAt  *time.Time `json:"occurredAt"`
	Completed   bool       `json:"completed"`
	Receipt     string     `json:"receipt"`
}

// CreateExpense handles POST /claims/{claimID}/expenses.
func (s *Server) CreateExpense(w http.ResponseWriter, r *http.Request) {
	s.putExpense(w, r, http.StatusCreated, func(*domain.ClaimBuilder) (*domain.ExpenseBuilder, error) {
		return domain.NewExpenseBuilder(), nil
	})
}

// UpdateExpense handles PUT /claims/{claimID}/expenses/{expenseID}.
func (s *Server) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := chi.URLParam(r, "expenseID")
	s.putExpense(w, r, http.StatusOK, func(cb *domain.ClaimBuilder) (*domain.ExpenseBuilder, error) {
		e, ok := cb.Expense(expenseID)
		if !ok {
			return nil, fmt.Errorf("expense %s: %w", expenseID, domain.ErrNotFound)
		}
		return e.Edit(), nil
	})
}

// putExpense builds an expense from the request on top of the builder start
// returns, then stores it on the claim by ID. start sees the claim as staged
// under the collection lock.
func (s *Server) putExpense(w http.ResponseWriter, r *http.Request, status int, start func(*domain.ClaimBuilder) (*domain.ExpenseBuilder, error)) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := s.claims.Edit(r.Context(), chi.URLParam(r, "claimID"), u, func(cb *domain.ClaimBuilder) *domain.ClaimBuilder {
		b, err := start(cb)
		if err != nil {
			return cb.Fail(err)
		}
		expense, err := buildExpense(b, req)
		if err != nil {
			return cb.Fail(err)
		}
		return cb.PutExpense(expense)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, toClaimResponse(updated))
}

// DeleteExpense handles DELETE /claims/{claimID}/expenses/{expenseID}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := actingUser(w, r)
	if !ok {
		return
	}
	expenseID := chi.URLParam(r, "expenseID")
	updated, err := s.claims.Edit(r.Context(), chi.URLParam(r, "claimID"), u, func(b *domain.ClaimBuilder) *domain.ClaimBuilder {
		if _, ok := b.Expense(expenseID); !ok {
			return b.Fail(fmt.Errorf("expense %s: %w", expenseID, domain.ErrNotFound))
		}
		return b.RemoveExpense(expenseID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

// buildExpense parses the request and applies it to b. Unparseable
// category, currency or amount values are validation errors.
func buildExpense(b *domain.ExpenseBuilder, req expenseRequest) (domain.Expense, error) {
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return domain.Expense{}, err
	}
	b.Description(req.Description).Category(category).Completed(req.Completed)

	if req.Currency != "" {
		currency, err := domain.ParseCurrency(req.Currency)
		if err != nil {
			return domain.Expense{}, err
		}
		b.Currency(currency)
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return domain.Expense{}, fmt.Errorf("%w: amount %q is not a number", domain.ErrValidation, req.Amount)
		}
		b.Amount(amount)
	}
	if req.OccurredAt != nil {
		b.OccurredAt(*req.OccurredAt)
	}
	if req.Receipt != "" {
		b.Receipt(req.Receipt)
	} else {
		b.ClearReceipt()
	}
	return b.Build()
}
