// Package importer applies pre-parsed spreadsheet rows to the ledger and
// renders the ledger back out as rows.
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/resolver"
)

const (
	newAccountColor  = "#64748B"
	newCategoryColor = "#94A3B8"
	newCategoryIcon  = "Tag"
)

// Row is one validated record produced by the spreadsheet reader.
// CategoryID and AccountID may be empty or unknown; the labels are what the
// sheet said and are used to create missing entities.
type Row struct {
	Row           int                    `json:"row"`
	Description   string                 `json:"description"`
	Amount        float64                `json:"amount"`
	Type          domain.TransactionType `json:"type"`
	CategoryID    string                 `json:"categoryId"`
	AccountID     string                 `json:"accountId"`
	Date          time.Time              `json:"date"`
	Currency      string                 `json:"currency"`
	Notes         string                 `json:"notes"`
	CategoryLabel string                 `json:"categoryLabel,omitempty"`
	AccountLabel  string                 `json:"accountLabel,omitempty"`
	Warnings      []string               `json:"warnings"`
}

// RowOutcome reports what happened to one row.
type RowOutcome struct {
	Row             int      `json:"row"`
	TransactionID   string   `json:"transactionId,omitempty"`
	AccountID       string   `json:"accountId"`
	CategoryID      string   `json:"categoryId"`
	CreatedAccount  bool     `json:"createdAccount,omitempty"`
	CreatedCategory bool     `json:"createdCategory,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	Total             int          `json:"total"`
	Imported          int          `json:"imported"`
	Skipped           int          `json:"skipped"`
	CreatedAccounts   []string     `json:"createdAccounts"`
	CreatedCategories []string     `json:"createdCategories"`
	Rows              []RowOutcome `json:"rows"`
}

// Reconciler applies batches of rows through the ledger.
type Reconciler struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

func NewReconciler(l *ledger.Ledger, log zerolog.Logger) *Reconciler {
	return &Reconciler{ledger: l, log: log}
}

// Apply imports rows in order. Missing accounts and categories named by a
// row label are created before the row is applied and reused by later rows
// with the same label. Rows without a usable amount or type are skipped and
// reported; everything else becomes one transaction.
func (r *Reconciler) Apply(state domain.State, rows []Row) (domain.State, Report) {
	report := Report{
		Total:             len(rows),
		CreatedAccounts:   []string{},
		CreatedCategories: []string{},
		Rows:              make([]RowOutcome, 0, len(rows)),
	}

	for _, row := range rows {
		out := RowOutcome{Row: row.Row, Warnings: append([]string{}, row.Warnings...)}
		if err := validate(row); err != nil {
			out.Error = err.Error()
			report.Skipped++
			report.Rows = append(report.Rows, out)
			continue
		}

		state, out.AccountID, out.CreatedAccount = r.ensureAccount(state, row)
		if out.CreatedAccount {
			report.CreatedAccounts = append(report.CreatedAccounts, row.AccountLabel)
		} else if _, ok := state.FindAccount(out.AccountID); !ok {
			out.Warnings = append(out.Warnings, fmt.Sprintf("Conta %q não encontrada", row.AccountID))
		}

		state, out.CategoryID, out.CreatedCategory = r.ensureCategory(state, row)
		if out.CreatedCategory {
			report.CreatedCategories = append(report.CreatedCategories, row.CategoryLabel)
		}

		currency := strings.ToUpper(strings.TrimSpace(row.Currency))
		state, out.TransactionID = r.ledger.CreateTransactionID(state, domain.TransactionDraft{
			AccountID:   out.AccountID,
			Type:        row.Type,
			Amount:      row.Amount,
			Currency:    currency,
			Description: row.Description,
			CategoryID:  out.CategoryID,
			Date:        row.Date,
			Notes:       row.Notes,
		})
		report.Imported++
		report.Rows = append(report.Rows, out)
	}

	r.log.Info().
		Int("rows", report.Total).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("created_accounts", len(report.CreatedAccounts)).
		Int("created_categories", len(report.CreatedCategories)).
		Msg("Batch import applied")
	return state, report
}

func validate(row Row) error {
	if row.Amount <= 0 {
		return fmt.Errorf("Valor inválido: %v", row.Amount)
	}
	if !row.Type.Valid() {
		return fmt.Errorf("Tipo inválido: %q", row.Type)
	}
	return nil
}

func (r *Reconciler) ensureAccount(state domain.State, row Row) (domain.State, string, bool) {
	if _, ok := state.FindAccount(row.AccountID); ok {
		return state, row.AccountID, false
	}
	label := strings.TrimSpace(row.AccountLabel)
	if label == "" {
		return state, row.AccountID, false
	}
	if acc, ok := resolver.FindAccountExact(state.Accounts, label); ok {
		return state, acc.ID, false
	}
	currency := strings.ToUpper(strings.TrimSpace(row.Currency))
	if currency == "" {
		currency = state.Settings.DefaultCurrency
	}
	next, id := r.ledger.CreateAccount(state, domain.Account{
		Name:     label,
		Type:     domain.AccountTypeBank,
		Currency: currency,
		Color:    newAccountColor,
	})
	return next, id, true
}

func (r *Reconciler) ensureCategory(state domain.State, row Row) (domain.State, string, bool) {
	if _, ok := state.FindCategory(row.CategoryID); ok {
		return state, row.CategoryID, false
	}
	typ := domain.CategoryTypeFor(row.Type)
	label := strings.TrimSpace(row.CategoryLabel)
	if label == "" {
		return state, row.CategoryID, false
	}
	if c, ok := resolver.FindCategoryExact(state.Categories, label, typ); ok {
		return state, c.ID, false
	}
	next, id := r.ledger.CreateCategory(state, domain.Category{
		Name:  label,
		Icon:  newCategoryIcon,
		Color: newCategoryColor,
		Type:  typ,
	})
	return next, id, true
}
