package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/api/middleware"
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// StateHandler handles the CRUD endpoints over the ledger state.
type StateHandler struct {
	session Session
	reducer *reducer.Reducer
	log     zerolog.Logger
}

// NewStateHandler creates a new state handler.
func NewStateHandler(session Session, r *reducer.Reducer, log zerolog.Logger) *StateHandler {
	return &StateHandler{session: session, reducer: r, log: log}
}

// apply runs a through the reducer under the session lock and responds with
// what pick extracts from the states before and after it.
func (h *StateHandler) apply(w http.ResponseWriter, r *http.Request, a reducer.Action, status int, pick func(prev, next domain.State) any) {
	var out any
	err := h.session.Update(r.Context(), string(a.Kind()), func(st domain.State) domain.State {
		next := h.reducer.Apply(st, a)
		if pick != nil {
			out = pick(st, next)
		}
		return next
	})
	if err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Str("action", string(a.Kind())).Msg("Failed to persist change")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save changes")
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	middleware.WriteJSON(w, status, out)
}

// GetState handles GET /api/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.session.Snapshot())
}

// ListTransactions handles GET /api/transactions
// Query params: start_date, end_date (YYYY-MM-DD), category_id, account_id
func (h *StateHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	q := r.URL.Query()

	if start, end := q.Get("start_date"), q.Get("end_date"); start != "" || end != "" {
		from, to, ok := h.dateRange(w, start, end)
		if !ok {
			return
		}
		state.Transactions = ledger.TransactionsByDateRange(state, from, to)
	}
	if id := q.Get("category_id"); id != "" {
		state.Transactions = ledger.TransactionsByCategory(state, id)
	}
	if id := q.Get("account_id"); id != "" {
		state.Transactions = ledger.TransactionsByAccount(state, id)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": state.Transactions,
		"count":        len(state.Transactions),
	})
}

func (h *StateHandler) dateRange(w http.ResponseWriter, start, end string) (from, to time.Time, ok bool) {
	to = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	var err error
	if start != "" {
		if from, err = parseDay(start, false); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format. Use YYYY-MM-DD")
			return from, to, false
		}
	}
	if end != "" {
		if to, err = parseDay(end, true); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format. Use YYYY-MM-DD")
			return from, to, false
		}
	}
	return from, to, true
}

type createTransactionRequest struct {
	domain.TransactionDraft
	Frequency domain.Frequency `json:"frequency,omitempty"`
}

// CreateTransaction handles POST /api/transactions
// A frequency in the body also registers a recurring rule.
func (h *StateHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "type must be income, expense or transfer")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.Frequency != "" && !req.Frequency.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "frequency must be daily, weekly, monthly or yearly")
		return
	}
	if req.Date.IsZero() {
		req.Date = h.reducer.Ledger().Now()
	}

	a := reducer.AddTransaction{Draft: req.TransactionDraft, Frequency: req.Frequency}
	h.apply(w, r, a, http.StatusCreated, func(_, st domain.State) any { return st.Transactions[0] })
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *StateHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindTransaction(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var u domain.TransactionUpdate
	if err := middleware.DecodeJSON(w, r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if u.Type != nil && !u.Type.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "type must be income, expense or transfer")
		return
	}
	if u.Amount != nil && *u.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	h.apply(w, r, reducer.UpdateTransaction{ID: id, Update: u}, http.StatusOK, func(_, st domain.State) any {
		tx, _ := st.FindTransaction(id)
		return tx
	})
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *StateHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindTransaction(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	h.apply(w, r, reducer.DeleteTransaction{ID: id}, http.StatusNoContent, nil)
}

// ListAccounts handles GET /api/accounts
func (h *StateHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts":     state.Accounts,
		"count":        len(state.Accounts),
		"totalBalance": ledger.TotalBalance(state),
	})
}

// CreateAccount handles POST /api/accounts
func (h *StateHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var a domain.Account
	if err := middleware.DecodeJSON(w, r, &a); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if a.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !a.Type.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid account type")
		return
	}
	h.apply(w, r, reducer.AddAccount{Account: a}, http.StatusCreated, func(_, st domain.State) any {
		return st.Accounts[len(st.Accounts)-1]
	})
}

// UpdateAccount handles PUT /api/accounts/{id}
func (h *StateHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindAccount(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Account not found")
		return
	}
	var u domain.AccountUpdate
	if err := middleware.DecodeJSON(w, r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if u.Type != nil && !u.Type.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid account type")
		return
	}
	h.apply(w, r, reducer.UpdateAccount{ID: id, Update: u}, http.StatusOK, func(_, st domain.State) any {
		a, _ := st.FindAccount(id)
		return a
	})
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *StateHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindAccount(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Account not found")
		return
	}
	h.apply(w, r, reducer.DeleteAccount{ID: id}, http.StatusNoContent, nil)
}

// ListCategories handles GET /api/categories
// Query params: type (income, expense)
func (h *StateHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	categories := state.Categories
	if t := r.URL.Query().Get("type"); t != "" {
		categories = state.CategoriesOfType(domain.CategoryType(t))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory handles POST /api/categories
func (h *StateHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := middleware.DecodeJSON(w, r, &c); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if c.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if c.Type != domain.CategoryTypeIncome && c.Type != domain.CategoryTypeExpense {
		middleware.WriteError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}
	h.apply(w, r, reducer.AddCategory{Category: c}, http.StatusCreated, func(_, st domain.State) any {
		return st.Categories[len(st.Categories)-1]
	})
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *StateHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindCategory(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	var u domain.CategoryUpdate
	if err := middleware.DecodeJSON(w, r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.apply(w, r, reducer.UpdateCategory{ID: id, Update: u}, http.StatusOK, func(_, st domain.State) any {
		c, _ := st.FindCategory(id)
		return c
	})
}

// DeleteCategory handles DELETE /api/categories/{id}
// Default categories cannot be deleted.
func (h *StateHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.session.Snapshot().FindCategory(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	if c.IsDefault {
		middleware.WriteError(w, http.StatusConflict, "Default categories cannot be deleted")
		return
	}
	h.apply(w, r, reducer.DeleteCategory{ID: id}, http.StatusNoContent, nil)
}

// ListRules handles GET /api/rules
func (h *StateHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": state.RecurringRules,
		"count": len(state.RecurringRules),
	})
}

// CreateRule handles POST /api/rules
func (h *StateHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.RecurringRule
	if err := middleware.DecodeJSON(w, r, &rule); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !rule.Frequency.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "frequency must be daily, weekly, monthly or yearly")
		return
	}
	if !rule.Type.Valid() || rule.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "A valid type and a positive amount are required")
		return
	}
	if rule.NextDate.IsZero() {
		rule.NextDate = rule.StartDate
	}
	h.apply(w, r, reducer.AddRecurringRule{Rule: rule}, http.StatusCreated, func(_, st domain.State) any {
		return st.RecurringRules[len(st.RecurringRules)-1]
	})
}

// UpdateRule handles PUT /api/rules/{id}
func (h *StateHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindRule(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Rule not found")
		return
	}
	var u domain.RecurringRuleUpdate
	if err := middleware.DecodeJSON(w, r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if u.Frequency != nil && !u.Frequency.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "frequency must be daily, weekly, monthly or yearly")
		return
	}
	h.apply(w, r, reducer.UpdateRecurringRule{ID: id, Update: u}, http.StatusOK, func(_, st domain.State) any {
		rule, _ := st.FindRule(id)
		return rule
	})
}

// DeleteRule handles DELETE /api/rules/{id}
func (h *StateHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.session.Snapshot().FindRule(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Rule not found")
		return
	}
	h.apply(w, r, reducer.DeleteRecurringRule{ID: id}, http.StatusNoContent, nil)
}

// CheckRules handles POST /api/rules/check
// It materializes every due rule and reports how many transactions appeared.
func (h *StateHandler) CheckRules(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, reducer.CheckRecurringRules{}, http.StatusOK, func(prev, st domain.State) any {
		return map[string]int{"generated": len(st.Transactions) - len(prev.Transactions)}
	})
}

// GetSettings handles GET /api/settings
func (h *StateHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.session.Snapshot().Settings)
}

// UpdateSettings handles PUT /api/settings
func (h *StateHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u domain.SettingsUpdate
	if err := middleware.DecodeJSON(w, r, &u); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.apply(w, r, reducer.UpdateSettings{Update: u}, http.StatusOK, func(_, st domain.State) any { return st.Settings })
}

// Summary handles GET /api/summary
// Query params: month (YYYY-MM, defaults to the current month)
func (h *StateHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := h.reducer.Ledger().Now()
	if m := r.URL.Query().Get("month"); m != "" {
		t, err := parseMonth(m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month format. Use YYYY-MM")
			return
		}
		now = t
	}
	state := h.session.Snapshot()
	month := ledger.MonthTransactions(state, now)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary":     ledger.Monthly(state, now),
		"topExpenses": ledger.TopExpenses(month, 5),
		"recent":      ledger.Recent(state.Transactions, 10),
	})
}

// Dispatch handles POST /api/actions
// The body is one tagged action: {"type": "...", "payload": ...}.
func (h *StateHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	a, err := reducer.DecodeAction(body)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.Dispatch(r.Context(), a); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Str("action", string(a.Kind())).Msg("Failed to persist action")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save changes")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.session.Snapshot())
}
